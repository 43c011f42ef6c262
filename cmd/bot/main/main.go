package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/disgoorg/snowflake/v2"
	"github.com/nordwache/guildbot/config"
	"github.com/nordwache/guildbot/db"
	"github.com/nordwache/guildbot/http"
	"github.com/nordwache/guildbot/integrations/spaces"
	"github.com/nordwache/guildbot/logger/dlog"
	"github.com/nordwache/guildbot/platform"
	"github.com/robfig/cron/v3"
	"golang.org/x/net/context"
)

func main() {
	cfg := config.Load()

	startLogArchiver(cfg)

	conn := db.NewConnection(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
	defer conn.Close()
	store := db.NewStore(&conn)

	bot := platform.Setup(cfg, store)
	bot.Start(context.Background())
	defer bot.Close()

	jobs := startJobs(cfg, bot)
	defer jobs.Stop()

	go http.Setup(cfg.HTTP.Port)

	dlog.Log.Info("Bot is now running. Press CTRL-C to exit.")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	dlog.Log.Info("Graceful shutdown")
}

func startLogArchiver(cfg *config.Config) {
	if cfg.Spaces.Key == "" || cfg.Spaces.Bucket == "" {
		dlog.StartArchiver(cfg.Logging.ArchiveCron, nil)
		return
	}
	client, err := spaces.New(cfg.Spaces.Key, cfg.Spaces.Secret, cfg.Spaces.Endpoint, cfg.Spaces.Region, cfg.Spaces.Bucket)
	if err != nil {
		dlog.Log.Error("Spaces client failed, archiving logs locally only", "err", err)
		dlog.StartArchiver(cfg.Logging.ArchiveCron, nil)
		return
	}
	dlog.StartArchiver(cfg.Logging.ArchiveCron, client.Upload)
}

func startJobs(cfg *config.Config, bot *platform.Bot) *cron.Cron {
	jobs := cron.New()
	guildID := snowflake.MustParse(cfg.GuildID)
	_, err := jobs.AddFunc(cfg.PanelRefreshCron, func() {
		if cfg.SupportQueue.Enabled {
			bot.Reconciler.RefreshPanel(guildID)
		}
		if cfg.Radio.Enabled {
			bot.RefreshRadioPanel()
		}
	})
	if err != nil {
		panic(err)
	}
	jobs.Start()
	return jobs
}
