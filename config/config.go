package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Token   string `env:"DISCORD_TOKEN,required"`
	GuildID string `env:"DISCORD_GUILD_ID,required"`

	HTTP struct {
		Port string `env:"PORT" envDefault:"8080"`
	}

	Neo4j struct {
		URI      string `env:"NEO4J_URI" envDefault:"neo4j://localhost:7687"`
		User     string `env:"NEO4J_USER" envDefault:"neo4j"`
		Password string `env:"NEO4J_PASSWORD,required"`
	}

	SupportQueue struct {
		Enabled          bool     `env:"SUPPORT_QUEUE_ENABLED" envDefault:"true"`
		QueueChannelID   string   `env:"SUPPORT_QUEUE_VOICE_CHANNEL_ID"`
		AgentChannelIDs  []string `env:"SUPPORT_AGENT_VOICE_CHANNEL_IDS" envSeparator:","`
		StatusChannelID  string   `env:"SUPPORT_QUEUE_STATUS_CHANNEL_ID"`
		StaffRoleIDs     []string `env:"SUPPORT_STAFF_ROLE_IDS" envSeparator:","`
		LogChannelID     string   `env:"SUPPORT_LOG_CHANNEL_ID"`
	}

	Giveaways struct {
		DefaultChannelID string `env:"GIVEAWAY_DEFAULT_CHANNEL_ID"`
	}

	Radio struct {
		Enabled        bool   `env:"RADIO_ENABLED" envDefault:"true"`
		VoiceChannelID string `env:"RADIO_VOICE_CHANNEL_ID"`
		StreamURL      string `env:"RADIO_STREAM_URL"`
		InfoChannelID  string `env:"RADIO_INFO_CHANNEL_ID"`
	}

	Logging struct {
		AuditChannelID string `env:"AUDIT_LOG_CHANNEL_ID"`
		ArchiveCron    string `env:"ARCHIVE_CRON" envDefault:"0 3 * * *"`
	}

	Spaces struct {
		Key      string `env:"SPACES_KEY"`
		Secret   string `env:"SPACES_SECRET"`
		Endpoint string `env:"SPACES_ENDPOINT" envDefault:"https://fra1.digitaloceanspaces.com"`
		Region   string `env:"SPACES_REGION" envDefault:"fra1"`
		Bucket   string `env:"SPACES_BUCKET"`
	}

	PanelRefreshCron string `env:"PANEL_REFRESH_CRON" envDefault:"@every 5m"`
}

func Load() *Config {
	// missing .env is fine, production sets the variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
	return cfg
}
