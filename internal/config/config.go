package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/da1suk8/donation-demo/pkg/log"
)

// Configuration struct
type Configuration struct {
	LogLevel      int           `yaml:"log_level"`
	SentryDSN     string        `yaml:"sentry_dsn"`
	Realtime      Realtime      `yaml:"realtime"`
	KaiaWallet    KaiaWallet    `yaml:"kaia_wallet"`
	Chain         Chain         `yaml:"chain"`
	WalletConnect WalletConnect `yaml:"wallet_connect"`
	MiniWallet    MiniWallet    `yaml:"mini_wallet"`
	Server        Server        `yaml:"server"`
	Donation      Donation      `yaml:"donation"`
	Connect       Connect       `yaml:"connect"`
}

type Realtime struct {
	URL      string   `yaml:"url"`
	APIKey   string   `yaml:"api_key"`
	Channels []string `yaml:"channels"`
}

type KaiaWallet struct {
	APIURL             string `yaml:"api_url"`
	BappName           string `yaml:"bapp_name"`
	PollMaxAttempts    int    `yaml:"poll_max_attempts"`
	PollIntervalMillis int    `yaml:"poll_interval_millis"`
}

func (in *KaiaWallet) PollInterval() time.Duration {
	return time.Duration(in.PollIntervalMillis) * time.Millisecond
}

type Chain struct {
	ID          int    `yaml:"id"`
	RPCEndpoint string `yaml:"rpc_endpoint"`
	ExplorerURL string `yaml:"explorer_url"`
}

// CAIP2 returns the chain identity used by the session protocol,
// e.g. "eip155:1001".
func (in *Chain) CAIP2() string {
	return fmt.Sprintf("eip155:%v", in.ID)
}

type WalletConnect struct {
	BridgeURL   string `yaml:"bridge_url"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
}

type MiniWallet struct {
	CompactURL string `yaml:"compact_url"`
	TallURL    string `yaml:"tall_url"`
}

type Server struct {
	Listen    string `yaml:"listen"`
	PublicURL string `yaml:"public_url"`
}

type Donation struct {
	ContractAddress string `yaml:"contract_address"`
	ProjectListURL  string `yaml:"project_list_url"`
}

type Connect struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func (in *Connect) Timeout() time.Duration {
	return time.Duration(in.TimeoutSeconds) * time.Second
}

func (c *Configuration) applyDefaults() {
	if len(c.Realtime.Channels) == 0 {
		c.Realtime.Channels = []string{"kakao"}
	}
	if c.KaiaWallet.APIURL == "" {
		c.KaiaWallet.APIURL = "https://api.kaiawallet.io"
	}
	if c.KaiaWallet.BappName == "" {
		c.KaiaWallet.BappName = "Kakao Bot"
	}
	if c.KaiaWallet.PollMaxAttempts == 0 {
		c.KaiaWallet.PollMaxAttempts = 30
	}
	if c.KaiaWallet.PollIntervalMillis == 0 {
		c.KaiaWallet.PollIntervalMillis = 2000
	}
	if c.Chain.ID == 0 {
		c.Chain.ID = 1001
	}
	if c.Chain.ExplorerURL == "" {
		c.Chain.ExplorerURL = "https://baobab.klaytnscope.com"
	}
	if c.Connect.TimeoutSeconds == 0 {
		c.Connect.TimeoutSeconds = 300
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
}

func readConfig(path string) (Configuration, error) {
	log.Info("Starting to load configuration file ...")
	dat, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	t := Configuration{}
	err = yaml.Unmarshal(dat, &t)

	if err != nil {
		if os.IsNotExist(err) {
			log.Fatalf("file %s does not exist", path)
		} else {
			log.Fatalf("fail to decode config error: %v", err)
		}
	}
	t.applyDefaults()
	return t, nil
}

var Global *Configuration

// Read reads configuration information from yml.
func Read() {
	configFilePath := flag.String("config-path", "internal/config/config.yml", "The path to the configuration file")
	flag.Parse()
	log.Infof("Loading configuration file from %s", *configFilePath)
	globalConfig, err := readConfig(*configFilePath)
	if err != nil {
		log.Fatal(err)
	}
	Global = &globalConfig
}
