package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
)

const listingUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// FetchOptions select which files to pull from a remote archive listing.
type FetchOptions struct {
	ListingURL string
	Dataset    string // label prefixed onto stored filenames
	Prefix     string // only fetch files whose name starts with this
	Limit      int    // 0 means no limit
}

// FetchedFile describes one file downloaded into local storage.
type FetchedFile struct {
	StorageKey string
	FileName   string
	SourceURL  string
	Size       int64
	DocType    string
}

// Fetcher pulls source files from static archive listings (directory
// indexes or plain link pages) into local storage, where the ingestion
// pipeline picks them up.
type Fetcher struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// FetchListing crawls the listing, downloads matching files, and
// returns what landed on disk. Listings are static HTML, pagination up
// to one level deep is followed.
func (f *Fetcher) FetchListing(ctx context.Context, opts FetchOptions) ([]FetchedFile, error) {
	base, err := url.Parse(opts.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL: %w", err)
	}

	hostname := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	c := colly.NewCollector(
		colly.MaxDepth(2),
		colly.AllowedDomains(hostname, "www."+hostname, base.Hostname()),
	)
	c.SetRequestTimeout(60 * time.Second)
	c.UserAgent = listingUserAgent
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       time.Second,
	})

	var (
		mu       sync.Mutex
		fileURLs []string
		seen     = map[string]struct{}{}
	)

	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") {
			return
		}

		// Archive listings are frequently latin-1 or windows-1252.
		bodyReader, err := charset.NewReader(bytes.NewReader(r.Body), contentType)
		if err != nil {
			bodyReader = bytes.NewReader(r.Body)
		}
		doc, err := goquery.NewDocumentFromReader(bodyReader)
		if err != nil {
			logger.Warn("Failed to parse listing page", "url", r.Request.URL.String(), "error", err)
			return
		}

		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" || strings.HasPrefix(href, "#") {
				return
			}
			abs := r.Request.AbsoluteURL(href)
			if abs == "" {
				return
			}

			name := path.Base(mustPath(abs))
			if docTypeForName(name) == "" {
				// Not a document link. Follow it if it looks like
				// pagination within the same listing.
				if strings.Contains(abs, base.Path) && abs != opts.ListingURL {
					r.Request.Visit(abs)
				}
				return
			}
			if opts.Prefix != "" && !strings.HasPrefix(name, opts.Prefix) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}
			fileURLs = append(fileURLs, abs)
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn("Listing request failed", "url", r.Request.URL.String(), "error", err)
	})

	if err := c.Visit(opts.ListingURL); err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	c.Wait()

	if opts.Limit > 0 && len(fileURLs) > opts.Limit {
		fileURLs = fileURLs[:opts.Limit]
	}
	logger.Info("Listing crawled", "url", opts.ListingURL, "files", len(fileURLs))

	var fetched []FetchedFile
	for _, fileURL := range fileURLs {
		select {
		case <-ctx.Done():
			return fetched, ctx.Err()
		default:
		}

		file, err := f.download(ctx, fileURL, opts.Dataset)
		if err != nil {
			logger.Warn("Download failed", "url", fileURL, "error", err)
			continue
		}
		fetched = append(fetched, *file)
	}
	return fetched, nil
}

// download streams one file into organized storage.
func (f *Fetcher) download(ctx context.Context, fileURL, dataset string) (*FetchedFile, error) {
	name := path.Base(mustPath(fileURL))
	docType := docTypeForName(name)
	if docType == "" {
		return nil, fmt.Errorf("unsupported file type: %s", name)
	}

	storageKey := storageKeyFor(docType, dataset, name)
	dest := filepath.Join(f.cfg.FileStorageDir, filepath.FromSlash(storageKey))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", listingUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(out, io.LimitReader(resp.Body, f.cfg.MaxFileSize+1))
	closeErr := out.Close()
	if err != nil {
		os.Remove(dest)
		return nil, err
	}
	if closeErr != nil {
		os.Remove(dest)
		return nil, closeErr
	}
	if size > f.cfg.MaxFileSize {
		os.Remove(dest)
		return nil, fmt.Errorf("file exceeds the %d byte limit", f.cfg.MaxFileSize)
	}

	return &FetchedFile{
		StorageKey: storageKey,
		FileName:   name,
		SourceURL:  fileURL,
		Size:       size,
		DocType:    docType,
	}, nil
}

func docTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.DocTypePDF
	case ".txt", ".text":
		return models.DocTypeText
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
		return models.DocTypeImage
	}
	return ""
}

func storageKeyFor(docType, dataset, name string) string {
	var category string
	switch docType {
	case models.DocTypePDF:
		category = "pdfs"
	case models.DocTypeText:
		category = "texts"
	case models.DocTypeImage:
		category = "images"
	default:
		category = "other"
	}
	if dataset != "" {
		name = dataset + "_" + name
	}
	return "organized/" + category + "/" + name
}

func mustPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
