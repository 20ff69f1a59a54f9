package kaiawallet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPrepareSendKaia(t *testing.T) {
	var body string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, preparePath, r.URL.Path)
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		body = string(data)
		fmt.Fprint(w, `{"chain_id":"1001","request_key":"key42","status":"prepared"}`)
	}, 30, time.Millisecond)

	requestKey, err := client.PrepareSendKaia(context.Background(), "0xdest", "1.5")
	require.NoError(t, err)
	assert.Equal(t, "key42", requestKey)

	assert.Equal(t, "send_klay", gjson.Get(body, "type").String())
	assert.Equal(t, "1001", gjson.Get(body, "chain_id").String())
	assert.Equal(t, "Kakao Bot", gjson.Get(body, "bapp.name").String())
	assert.Equal(t, "0xdest", gjson.Get(body, "transaction.to").String())
	assert.Equal(t, "1.5", gjson.Get(body, "transaction.amount").String())
}

func TestPrepareExecuteContract(t *testing.T) {
	var body string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		fmt.Fprint(w, `{"chain_id":"1001","request_key":"key43","status":"prepared"}`)
	}, 30, time.Millisecond)

	abi := `{"name":"donate","type":"function"}`
	params, err := json.Marshal([]string{"7"})
	require.NoError(t, err)

	requestKey, err := client.PrepareExecuteContract(context.Background(),
		"0xcontract", abi, string(params), "0x14d1120d7b160000")
	require.NoError(t, err)
	assert.Equal(t, "key43", requestKey)

	assert.Equal(t, "execute_contract", gjson.Get(body, "type").String())
	assert.Equal(t, "0xcontract", gjson.Get(body, "transaction.to").String())
	assert.Equal(t, abi, gjson.Get(body, "transaction.abi").String())
	assert.Equal(t, `["7"]`, gjson.Get(body, "transaction.params").String())
	assert.Equal(t, "0x14d1120d7b160000", gjson.Get(body, "transaction.value").String())
}

func TestPrepareRejectsMissingRequestKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chain_id":"1001","status":"error"}`)
	}, 30, time.Millisecond)

	_, err := client.PrepareAuth(context.Background())
	require.Error(t, err)
}

func TestDeepLink(t *testing.T) {
	client := NewClient("https://api.example.com", "Kakao Bot", 1001)
	assert.Equal(t, "kaikas://wallet/api?request_key=key1", client.DeepLink("key1"))
}
