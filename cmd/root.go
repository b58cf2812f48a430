package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "resume-tailor"
	envPrefix = "RESUME_TAILOR"
)

type Config struct {
	AI        *AIConfig     `mapstructure:"ai"`
	Limits    *LimitsConfig `mapstructure:"limits"`
	Fetch     *FetchConfig  `mapstructure:"fetch"`
	Render    *RenderConfig `mapstructure:"render"`
	OutputDir string        `mapstructure:"output-dir"`
	Server    *ServerConfig `mapstructure:"server"`
}

type AIConfig struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	BaseURL      string  `mapstructure:"base-url"`
	MaxRetries   int     `mapstructure:"max-retries"`
	MaxLogLength int     `mapstructure:"max-log-length"`
	Temperature  float64 `mapstructure:"temperature"`
}

type LimitsConfig struct {
	MaxResumeSizeMB int `mapstructure:"max-resume-size-mb"`
	MaxJobAdLength  int `mapstructure:"max-job-ad-length"`
}

// MaxResumeBytes converts the megabyte limit into bytes.
func (l *LimitsConfig) MaxResumeBytes() int64 {
	return int64(l.MaxResumeSizeMB) << 20
}

type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user-agent"`
	Browser   bool          `mapstructure:"browser"`
}

type RenderConfig struct {
	PandocPath string `mapstructure:"pandoc-path"`
	PDFEngine  string `mapstructure:"pdf-engine"`
}

type ServerConfig struct {
	Listen       string   `mapstructure:"listen"`
	Concurrency  int      `mapstructure:"concurrency"`
	AllowOrigins []string `mapstructure:"allow-origins"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-tailor rewrites a resume for a specific job posting without inventing facts",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-tailor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("provider", "", "ai provider: anthropic, gemini or openai")
	rootCmd.PersistentFlags().String("model", "", "model name (default depends on provider)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("ai.provider", rootCmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("ai.model", rootCmd.PersistentFlags().Lookup("model"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "anthropic")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api-key", "")
	v.SetDefault("ai.api-key-file", "")
	v.SetDefault("ai.base-url", "")
	v.SetDefault("ai.max-retries", 2)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.temperature", 0.0)

	v.SetDefault("limits.max-resume-size-mb", 10)
	v.SetDefault("limits.max-job-ad-length", 50000)

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.user-agent", "")
	v.SetDefault("fetch.browser", false)

	v.SetDefault("render.pandoc-path", "pandoc")
	v.SetDefault("render.pdf-engine", "")

	v.SetDefault("output-dir", "./out")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.concurrency", 4)
	v.SetDefault("server.allow-origins", []string{"*"})
}

func initConfig() {
	// Settings may also come from a .env file next to the binary's working directory.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional unless it was requested explicitly.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
