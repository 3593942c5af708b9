package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/fetcher"
	"document-rag-platform/internal/logger"
	"document-rag-platform/internal/queue"
	"document-rag-platform/models"
	"document-rag-platform/services"
)

// The batch ingestion CLI. Registers files already in local storage, or
// pulls them from a remote listing first, then processes them inline
// with a worker pool or hands them to the queue.
//
//	ingest -type pdf -prefix dataset1_ -workers 4
//	ingest -source https://archive.example.org/docs/ -dataset dataset2 -limit 100 -enqueue
func main() {
	var (
		docType = flag.String("type", "all", "document type to ingest: pdf, text, image, or all")
		prefix  = flag.String("prefix", "", "only ingest files whose name starts with this prefix")
		source  = flag.String("source", "", "remote listing URL to fetch files from before ingesting")
		dataset = flag.String("dataset", "", "dataset label prefixed onto fetched filenames")
		limit   = flag.Int("limit", 0, "maximum number of files to ingest (0 = no limit)")
		workers = flag.Int("workers", 4, "concurrent ingestion workers for inline processing")
		enqueue = flag.Bool("enqueue", false, "enqueue documents for the worker instead of processing inline")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	embedder, err := ai.NewEmbedder(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	store := services.NewVectorStore(db, cfg)
	ingest := services.NewIngestService(db, cfg, store, embedder)

	ctx := context.Background()

	if *source != "" {
		f := fetcher.NewFetcher(cfg)
		fetched, err := f.FetchListing(ctx, fetcher.FetchOptions{
			ListingURL: *source,
			Dataset:    *dataset,
			Prefix:     *prefix,
			Limit:      *limit,
		})
		if err != nil {
			log.Fatal("Failed to fetch remote listing:", err)
		}
		logger.Info("Remote fetch complete", "files", len(fetched))
	}

	files, err := collectFiles(cfg.FileStorageDir, *docType, *prefix, *limit)
	if err != nil {
		log.Fatal("Failed to scan storage:", err)
	}
	if len(files) == 0 {
		fmt.Println("No matching files found")
		return
	}
	logger.Info("Starting batch ingestion", "files", len(files), "type", *docType)

	var queueClient *asynq.Client
	if *enqueue {
		queueClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer queueClient.Close()
	}

	type job struct {
		storageKey string
		docType    string
	}
	jobs := make(chan job)

	var (
		wg                      sync.WaitGroup
		mu                      sync.Mutex
		processed, skipped, bad int
	)

	workerCount := *workers
	if *enqueue || workerCount < 1 {
		workerCount = 1
	}

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				doc, created, err := ingest.RegisterDocument(ctx, j.storageKey, filepath.Base(j.storageKey), j.docType, "batch import")
				if err != nil {
					logger.Error("Failed to register file", "storage_key", j.storageKey, "error", err)
					mu.Lock()
					bad++
					mu.Unlock()
					continue
				}
				if !created && doc.Status == models.StatusCompleted {
					mu.Lock()
					skipped++
					mu.Unlock()
					continue
				}

				if *enqueue {
					task, err := queue.NewIngestTask(j.docType, doc.DocumentID, doc.StorageKey)
					if err == nil {
						_, err = queueClient.Enqueue(task)
					}
					if err != nil {
						logger.Error("Failed to enqueue document", "document_id", doc.DocumentID, "error", err)
						mu.Lock()
						bad++
						mu.Unlock()
						continue
					}
				} else if err := ingest.ProcessDocument(ctx, doc.DocumentID); err != nil {
					logger.Error("Ingestion failed", "document_id", doc.DocumentID, "error", err)
					mu.Lock()
					bad++
					mu.Unlock()
					continue
				}

				mu.Lock()
				processed++
				mu.Unlock()
			}
		}()
	}

	for _, f := range files {
		jobs <- job{storageKey: f.storageKey, docType: f.docType}
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("Done: %d processed, %d skipped (already ingested), %d failed\n", processed, skipped, bad)
	if bad > 0 {
		os.Exit(1)
	}
}

type storedFile struct {
	storageKey string
	docType    string
}

// collectFiles walks the storage root for ingestible files matching the
// type and prefix filters.
func collectFiles(root, wantType, prefix string, limit int) ([]storedFile, error) {
	var files []storedFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		docType := docTypeForExt(filepath.Ext(path))
		if docType == "" {
			return nil
		}
		if wantType != "all" && wantType != docType {
			return nil
		}
		if prefix != "" && !strings.HasPrefix(filepath.Base(path), prefix) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, storedFile{
			storageKey: filepath.ToSlash(rel),
			docType:    docType,
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}

func docTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return models.DocTypePDF
	case ".txt", ".text":
		return models.DocTypeText
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
		return models.DocTypeImage
	}
	return ""
}
