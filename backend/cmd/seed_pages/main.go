package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"compare-service/backend/internal/cache"
	"compare-service/backend/internal/config"
	"compare-service/backend/internal/store"
	"compare-service/backend/internal/title"
)

func main() {
	fixturePath := flag.StringP("fixtures", "f", "./backend/config/fixtures.yaml", "YAML file with pages and revisions")
	dsn := flag.String("dsn", "", "MySQL DSN, overrides compareConfig.yaml")
	migrate := flag.Bool("migrate", true, "create tables before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("init config failed: %v", err)
	}
	if *dsn != "" {
		cfg.MySQL.DSN = *dsn
	}

	b, err := os.ReadFile(*fixturePath)
	if err != nil {
		log.Fatalf("read fixtures failed: %v", err)
	}
	fixtures, err := parseFixtures(b)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, sqlDB, err := store.OpenMySQL(ctx, store.MySQLOptions{DSN: cfg.MySQL.DSN, AutoMigrate: *migrate})
	if err != nil {
		log.Fatalf("open mysql failed: %v", err)
	}
	defer sqlDB.Close()

	// 写入新修订后需要清掉页面最新修订缓存
	var rdb redis.UniversalClient
	if cfg.Redis.Enabled {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: cfg.Redis.Addrs, Password: cfg.Redis.Password})
		defer rdb.Close()
	}

	revisions := store.NewRevisionStore(db)
	contents := store.NewContentStore(sqlDB)
	pages := cache.NewPageCache(rdb, revisions, cache.DefaultPagePolicy)
	parser := title.NewParser(cfg.Title.CapitalLinks)

	for _, p := range fixtures.Pages {
		t, err := parser.Parse(p.Title)
		if err != nil {
			log.Fatalf("page %q: %v", p.Title, err)
		}
		for _, r := range p.Revisions {
			contentID, sum, err := contents.SaveContent(ctx, r.Text)
			if err != nil {
				log.Fatalf("save content for %q failed: %v", t.PrefixedText(), err)
			}
			id, err := revisions.InsertRevision(ctx, store.NewRevision{
				Title:     t,
				Model:     p.Model,
				ContentID: contentID,
				Size:      uint64(len(r.Text)),
				Sha1:      sum,
				Comment:   r.Comment,
				Deleted:   r.deletedBits(),
				Timestamp: r.Timestamp,
			})
			if err != nil {
				log.Fatalf("insert revision for %q failed: %v", t.PrefixedText(), err)
			}
			log.WithFields(log.Fields{"page": t.PrefixedText(), "rev": id}).Info("revision inserted")
		}
		if err := pages.Forget(ctx, t); err != nil {
			log.WithError(err).WithField("page", t.PrefixedText()).Warn("forget page cache failed")
		}
	}
	log.WithField("pages", len(fixtures.Pages)).Info("seed done")
}
