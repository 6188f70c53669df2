package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/spacetraveling"
	"github.com/eringen/spacetraveling/views"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "spacetraveling",
	Short:         "A blog front end for a Prismic repository",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(serveCmd, buildCmd, initCmd, &cobra.Command{
		Use:   "version",
		Short: "Print the spacetraveling version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spacetraveling %s\n", version)
		},
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.name", "spacetraveling")
	v.SetDefault("site.url", "http://localhost:3000")
	v.SetDefault("site.locale", "pt-BR")
	v.SetDefault("prismic.endpoint", "")
	v.SetDefault("prismic.accessToken", "")
	v.SetDefault("prismic.lang", "*")
	v.SetDefault("prismic.webhookSecret", "")
	v.SetDefault("listing.pageSize", 1)
	v.SetDefault("reading.wordsPerMinute", 200)
	v.SetDefault("reading.minimumMinutes", 0)
	v.SetDefault("richtext.policy", "sanitize")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.sessionSecret", "")
	v.SetDefault("server.cookieSecure", false)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.databasePath", "data/posts.db")
	v.SetDefault("build.outputDir", "out")
	v.SetDefault("build.concurrency", 4)
	v.SetDefault("build.localizeBanners", false)
	v.SetDefault("request.timeout", "10s")
	v.SetDefault("htmx.src", "")
	v.SetDefault("staticDir", "public")
}

// loadConfig reads config.yaml (or --config), SPACETRAVELING_* environment
// variables and .env, in increasing order of precedence for env.
func loadConfig() (*viper.Viper, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	path := cfgFile
	if path == "" {
		path = spacetraveling.EnvOr("SPACETRAVELING_CONFIG", "")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPACETRAVELING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func siteConfig(v *viper.Viper) spacetraveling.SiteConfig {
	return spacetraveling.SiteConfig{
		Name:        v.GetString("site.name"),
		URL:         v.GetString("site.url"),
		Description: v.GetString("site.description"),
		Author:      v.GetString("site.author"),
		Locale:      v.GetString("site.locale"),
		Labels: views.Labels{
			LoadMore:    v.GetString("labels.loadMore"),
			Loading:     v.GetString("labels.loading"),
			LoadFailed:  v.GetString("labels.loadFailed"),
			NotFound:    v.GetString("labels.notFound"),
			ServerError: v.GetString("labels.serverError"),
			ExitPreview: v.GetString("labels.exitPreview"),
			Minutes:     v.GetString("labels.minutes"),
		},

		PrismicEndpoint:    v.GetString("prismic.endpoint"),
		PrismicAccessToken: v.GetString("prismic.accessToken"),
		PrismicLang:        v.GetString("prismic.lang"),
		WebhookSecret:      v.GetString("prismic.webhookSecret"),
		RequestTimeout:     v.GetDuration("request.timeout"),

		ListingPageSize:       v.GetInt("listing.pageSize"),
		WordsPerMinute:        v.GetInt("reading.wordsPerMinute"),
		MinimumReadingMinutes: v.GetInt("reading.minimumMinutes"),
		RichTextPolicy:        v.GetString("richtext.policy"),

		Addr:          v.GetString("server.addr"),
		DatabasePath:  v.GetString("cache.databasePath"),
		SessionSecret: v.GetString("server.sessionSecret"),
		CookieSecure:  v.GetBool("server.cookieSecure"),
		PostCacheTTL:  v.GetDuration("cache.ttl"),
		HTMXSrc:       v.GetString("htmx.src"),

		OutputDir:        v.GetString("build.outputDir"),
		BuildConcurrency: v.GetInt("build.concurrency"),
		LocalizeBanners:  v.GetBool("build.localizeBanners"),
	}
}
