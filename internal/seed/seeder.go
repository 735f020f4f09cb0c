// Package seed loads the curated law corpus from a manifest of local files.
package seed

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/legalmind/internal/core"
	ingestion "github.com/markdave123-py/legalmind/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/legalmind/internal/core/object-client"
	"github.com/markdave123-py/legalmind/internal/models"
)

// Report lists the slugs by outcome.
type Report struct {
	Seeded  []string
	Skipped []string
	Failed  map[string]string
}

type Seeder struct {
	db          core.DbClient
	storage     core.ObjectClient
	ingestor    ingestion.Ingestor
	bucket      string
	lawsDir     string
	concurrency int
}

func NewSeeder(db core.DbClient, storage core.ObjectClient, ingestor ingestion.Ingestor, bucket, lawsDir string, concurrency int) *Seeder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Seeder{db: db, storage: storage, ingestor: ingestor, bucket: bucket, lawsDir: lawsDir, concurrency: concurrency}
}

// Seed creates or refreshes every selected law and ingests it synchronously.
// Laws already ready are skipped unless force is set. A failing law does not
// stop the others; Seed reports an error when any law failed.
func (s *Seeder) Seed(ctx context.Context, m *Manifest, force bool, only string) (*Report, error) {
	laws, err := m.Select(only)
	if err != nil {
		return nil, err
	}
	log.Printf("Seeder: processing %d law(s)", len(laws))

	report := &Report{Failed: map[string]string{}}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, law := range laws {
		g.Go(func() error {
			skipped, err := s.seedLaw(ctx, law, force)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				log.Printf("Seeder: failed to seed %s: %v", law.Slug, err)
				report.Failed[law.Slug] = err.Error()
			case skipped:
				log.Printf("Seeder: skipping %s, already seeded", law.Slug)
				report.Skipped = append(report.Skipped, law.Slug)
			default:
				report.Seeded = append(report.Seeded, law.Slug)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("%d of %d law(s) failed", len(report.Failed), len(laws))
	}
	return report, nil
}

func (s *Seeder) seedLaw(ctx context.Context, law Law, force bool) (skipped bool, err error) {
	existing, err := s.db.GetCorpusBySlug(ctx, law.Slug)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.IsReady() && !force {
		return true, nil
	}

	corpus := existing
	if corpus == nil {
		corpus = &models.Corpus{ID: uuid.NewString(), Kind: models.CorpusKindLaw, Slug: law.Slug, Status: models.StatusPending}
	}
	corpus.Title = law.TitleEn
	corpus.TitleAlt = law.TitleAr
	corpus.Description = law.DescriptionEn
	corpus.Language = law.Language

	path := filepath.Join(s.lawsDir, law.FileName)
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		readErr = core.Wrap(core.ErrLoad, "source file "+path, readErr)
		if existing != nil {
			if err := s.db.UpdateCorpusStatus(ctx, corpus.ID, models.StatusFailed, readErr.Error()); err != nil {
				log.Printf("Seeder: mark %s failed: %v", law.Slug, err)
			}
		}
		return false, readErr
	}

	key := objectclient.ObjectKey("", corpus.ID, law.FileName)
	contentType := ingestion.EffectiveContentType("", law.FileName)
	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return false, core.Wrap(core.ErrPersistence, "upload "+law.FileName, err)
	}
	corpus.FileName = filepath.Base(law.FileName)
	corpus.StorageURL = url
	corpus.ContentType = contentType
	corpus.SizeBytes = int64(len(data))

	if existing == nil {
		err = s.db.CreateCorpus(ctx, corpus)
	} else {
		err = s.db.UpdateCorpusMetadata(ctx, corpus)
	}
	if err != nil {
		return false, err
	}

	log.Printf("Seeder: ingesting %s from %s", law.Slug, law.FileName)
	return false, s.ingestor.ProcessOne(ctx, ingestion.Job{CorpusID: corpus.ID, Force: force})
}
