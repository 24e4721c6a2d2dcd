//go:build datagen_postgres
// +build datagen_postgres

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/helper/env"
	"assetgraph/src/infra/postgres"
	"assetgraph/src/repositories"
	"assetgraph/src/services/authz"
	"assetgraph/src/services/links"
)

// DatabaseBundle é um database fake com seus assets e as arestas planejadas entre eles.
type DatabaseBundle struct {
	DatabaseID string
	Assets     []entities.AssetNode
	Links      []links.CreateLinkRequest
}

var assetTypes = []string{"model", "pointcloud", "image", "document", "drawing"}

// seederCaller tem acesso total, a autorização real continua sendo exercitada.
var seederCaller = domain.Caller{
	UserID: "datagen",
	Grants: []domain.Grant{{
		DatabaseID: "*",
		Actions:    []domain.Action{domain.ActionRead, domain.ActionCreate},
	}},
}

type discardPublisher struct{}

func (discardPublisher) PublishLinkEvent(context.Context, domain.LinkEvent) error { return nil }

func newSQLClient() (*pgxpool.Pool, error) {
	dbHost := env.MustGetString("DB_WRITE_HOST")
	dbPort := env.GetString("DB_WRITE_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := 50
	return postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
}

func main() {
	numDatabases := flag.Int("databases", 10, "Número de databases a serem criados. Use -1 para infinito.")
	assetsPerDatabase := flag.Int("assets", 200, "Assets por database")
	aliasPerc := flag.Float64("alias-perc", 10.0, "Percentual de arestas parentChild que ganham um alias extra")
	relatedPerc := flag.Float64("related-perc", 30.0, "Percentual de assets com uma aresta related")
	numConsumers := flag.Int("consumers", 8, "Número de consumers")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := newSQLClient()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// as arestas passam pelo serviço, então toda regra de validação vale para o seed
	service := links.NewLinkService(
		logger,
		repositories.NewAssetLinkRepository(db),
		repositories.NewAssetCatalogRepository(db),
		authz.NewGrantAuthorizer(),
		repositories.NewLinkMetadataRepository(db),
		discardPublisher{},
		links.Config{},
	)

	dataChan := make(chan DatabaseBundle, *numConsumers*2)

	var wg sync.WaitGroup
	var totalLinks, totalRejected, totalErrors int64
	startTime := time.Now()

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				created := atomic.LoadInt64(&totalLinks)
				elapsed := time.Since(startTime)
				fmt.Printf("Links: %d | Rejected: %d | Errors: %d | Rate: %.1f/s | Elapsed: %v\n",
					created,
					atomic.LoadInt64(&totalRejected),
					atomic.LoadInt64(&totalErrors),
					float64(created)/elapsed.Seconds(),
					elapsed.Round(time.Second))
			}
		}
	}()

	for i := 0; i < *numConsumers; i++ {
		wg.Add(1)
		go func(consumerID int) {
			defer wg.Done()
			for bundle := range dataChan {
				if err := insertAssets(ctx, db, bundle.Assets); err != nil {
					log.Printf("Consumer %d: failed to insert assets of %s: %v", consumerID, bundle.DatabaseID, err)
					atomic.AddInt64(&totalErrors, 1)
					continue
				}

				for _, req := range bundle.Links {
					_, err := service.Create(ctx, seederCaller, req)
					if err == nil {
						atomic.AddInt64(&totalLinks, 1)
						continue
					}
					if _, ok := domain.AsValidationError(err); ok {
						atomic.AddInt64(&totalRejected, 1)
						continue
					}
					atomic.AddInt64(&totalErrors, 1)
				}
			}
		}(i + 1)
	}

	wg.Add(1)
	go producer(ctx, &wg, dataChan, *numDatabases, *assetsPerDatabase, *aliasPerc, *relatedPerc)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutdown signal received, stopping...")
		cancel()
	}()

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("\nSeeding finished!\n")
	fmt.Printf("Links created: %d\n", atomic.LoadInt64(&totalLinks))
	fmt.Printf("Links rejected: %d\n", atomic.LoadInt64(&totalRejected))
	fmt.Printf("Errors: %d\n", atomic.LoadInt64(&totalErrors))
	fmt.Printf("Total time: %v\n", elapsed.Round(time.Second))
}

func producer(ctx context.Context, wg *sync.WaitGroup, dataChan chan<- DatabaseBundle, numDatabases, assetsPerDatabase int, aliasPerc, relatedPerc float64) {
	defer wg.Done()
	defer close(dataChan)

	isInfinite := numDatabases == -1
	for count := 0; isInfinite || count < numDatabases; count++ {
		bundle := generateDatabase(assetsPerDatabase, aliasPerc, relatedPerc)

		select {
		case dataChan <- bundle:
			if (count+1)%10 == 0 {
				fmt.Printf("Generated %d databases\n", count+1)
			}
		case <-ctx.Done():
			fmt.Println("Producer stopping.")
			return
		}
	}
}

// generateDatabase monta uma floresta: cada asset só aponta para um pai de
// índice menor, então o plano de parentChild não tem ciclos. As arestas related
// podem repetir pares e são rejeitadas pelo serviço nesse caso.
func generateDatabase(assetsPerDatabase int, aliasPerc, relatedPerc float64) DatabaseBundle {
	databaseID := "db-" + faker.UUIDHyphenated()

	assets := make([]entities.AssetNode, assetsPerDatabase)
	for i := range assets {
		assets[i] = entities.AssetNode{
			DatabaseID: databaseID,
			AssetID:    faker.UUIDHyphenated(),
			Name:       faker.Word() + " " + faker.Word(),
			Type:       assetTypes[rand.Intn(len(assetTypes))],
			Tags:       []string{faker.Word()},
		}
	}

	planned := make([]links.CreateLinkRequest, 0, assetsPerDatabase*2)
	for i := 1; i < len(assets); i++ {
		parent := assets[rand.Intn(i)]
		planned = append(planned, links.CreateLinkRequest{
			From:             parent.Key(),
			To:               assets[i].Key(),
			RelationshipType: entities.RelationshipParentChild,
		})

		if rand.Float64()*100 < aliasPerc {
			planned = append(planned, links.CreateLinkRequest{
				From:             parent.Key(),
				To:               assets[i].Key(),
				RelationshipType: entities.RelationshipParentChild,
				AliasID:          "alias-" + faker.Word(),
			})
		}

		if rand.Float64()*100 < relatedPerc {
			other := assets[rand.Intn(len(assets))]
			if other.Key() != assets[i].Key() {
				planned = append(planned, links.CreateLinkRequest{
					From:             assets[i].Key(),
					To:               other.Key(),
					RelationshipType: entities.RelationshipRelated,
					Tags:             []string{faker.Word()},
				})
			}
		}
	}

	return DatabaseBundle{DatabaseID: databaseID, Assets: assets, Links: planned}
}

func insertAssets(ctx context.Context, db *pgxpool.Pool, assets []entities.AssetNode) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	rows := make([][]any, len(assets))
	for i, asset := range assets {
		rows[i] = []any{asset.DatabaseID, asset.AssetID, asset.Name, asset.Type, asset.Tags}
	}

	_, err := db.CopyFrom(ctx,
		pgx.Identifier{"assets"},
		[]string{"database_id", "asset_id", "name", "type", "tags"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy assets: %w", err)
	}

	return nil
}
