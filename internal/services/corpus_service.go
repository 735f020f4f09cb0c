package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/markdave123-py/legalmind/internal/core"
	ingestion "github.com/markdave123-py/legalmind/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/legalmind/internal/core/object-client"
	"github.com/markdave123-py/legalmind/internal/core/vectorindex"
	"github.com/markdave123-py/legalmind/internal/models"
)

// allowedExtensions are the upload formats accepted from callers.
var allowedExtensions = map[string]bool{".pdf": true, ".txt": true, ".docx": true}

// UploadInput describes a caller upload. Title and Language are optional.
type UploadInput struct {
	OwnerID     string
	FileName    string
	ContentType string
	Title       string
	Language    string
	Data        []byte
}

type CorpusService struct {
	db             core.DbClient
	storage        core.ObjectClient
	index          *vectorindex.Manager
	ingestor       ingestion.Ingestor
	bucket         string
	maxUploadBytes int64
}

func NewCorpusService(db core.DbClient, storage core.ObjectClient, index *vectorindex.Manager, ingestor ingestion.Ingestor, bucket string, maxUploadMB int) *CorpusService {
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &CorpusService{
		db:             db,
		storage:        storage,
		index:          index,
		ingestor:       ingestor,
		bucket:         bucket,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// ValidateUpload rejects unsupported or oversized files before any I/O.
func (s *CorpusService) ValidateUpload(fileName string, size int64) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: unsupported file type %q, use PDF, TXT or DOCX", core.ErrValidation, ext)
	}
	if size <= 0 {
		return fmt.Errorf("%w: file is empty", core.ErrValidation)
	}
	if size > s.maxUploadBytes {
		return fmt.Errorf("%w: file exceeds the %d MB limit", core.ErrValidation, s.maxUploadBytes>>20)
	}
	return nil
}

// Upload stores the file, creates a pending corpus and schedules ingestion.
func (s *CorpusService) Upload(ctx context.Context, in UploadInput) (*models.Corpus, error) {
	if in.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", core.ErrValidation)
	}
	if err := s.ValidateUpload(in.FileName, int64(len(in.Data))); err != nil {
		return nil, err
	}

	corpusID := uuid.NewString()
	key := objectclient.ObjectKey(in.OwnerID, corpusID, in.FileName)
	contentType := ingestion.EffectiveContentType(in.ContentType, in.FileName)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, in.Data, contentType)
	if err != nil {
		return nil, core.Wrap(core.ErrPersistence, "upload file", err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = TitleFromFileName(in.FileName)
	}
	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = "en"
	}

	corpus := &models.Corpus{
		ID:          corpusID,
		Kind:        models.CorpusKindDocument,
		OwnerID:     in.OwnerID,
		Title:       title,
		FileName:    filepath.Base(in.FileName),
		StorageURL:  url,
		ContentType: contentType,
		SizeBytes:   int64(len(in.Data)),
		Language:    lang,
		Status:      models.StatusPending,
	}
	if err := s.db.CreateCorpus(ctx, corpus); err != nil {
		if delErr := s.storage.DeleteFile(ctx, s.bucket, key); delErr != nil {
			log.Printf("CorpusService: cleanup of %s failed: %v", key, delErr)
		}
		return nil, err
	}

	if err := s.ingestor.Enqueue(ctx, ingestion.Job{CorpusID: corpus.ID}); err != nil {
		if delErr := s.db.DeleteCorpus(ctx, corpus.ID); delErr != nil {
			log.Printf("CorpusService: cleanup of corpus %s failed: %v", corpus.ID, delErr)
		}
		if delErr := s.storage.DeleteFile(ctx, s.bucket, key); delErr != nil {
			log.Printf("CorpusService: cleanup of %s failed: %v", key, delErr)
		}
		return nil, err
	}
	return corpus, nil
}

// Get returns a corpus visible to the caller: one of their own documents or
// a shared corpus. Anything else is reported as not found.
func (s *CorpusService) Get(ctx context.Context, callerID, id string) (*models.Corpus, error) {
	corpus, err := s.db.GetCorpusByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if corpus == nil || (corpus.OwnerID != "" && corpus.OwnerID != callerID) {
		return nil, fmt.Errorf("corpus %s: %w", id, core.ErrNotFound)
	}
	return corpus, nil
}

func (s *CorpusService) GetBySlug(ctx context.Context, slug string) (*models.Corpus, error) {
	corpus, err := s.db.GetCorpusBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if corpus == nil {
		return nil, fmt.Errorf("law %s: %w", slug, core.ErrNotFound)
	}
	return corpus, nil
}

// List returns the caller's documents, newest first, optionally filtered by title.
func (s *CorpusService) List(ctx context.Context, callerID, search string) ([]models.Corpus, error) {
	return s.db.ListCorpora(ctx, core.CorpusFilter{
		OwnerID: callerID,
		Kind:    models.CorpusKindDocument,
		Search:  strings.TrimSpace(search),
	})
}

// ListLaws returns the curated laws that are ready to query.
func (s *CorpusService) ListLaws(ctx context.Context, search string) ([]models.Corpus, error) {
	return s.db.ListCorpora(ctx, core.CorpusFilter{
		Kind:   models.CorpusKindLaw,
		Status: models.StatusReady,
		Search: strings.TrimSpace(search),
	})
}

// Ingest schedules (re)ingestion of a caller's document and returns
// immediately. A ready corpus is only rebuilt with force. A corpus left in
// processing is rejected unless force is set, which recovers runs that died
// mid-way.
func (s *CorpusService) Ingest(ctx context.Context, callerID, id string, force bool) (*models.Corpus, error) {
	corpus, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if corpus.OwnerID == "" {
		return nil, fmt.Errorf("%w: shared corpora are ingested by the seeder", core.ErrValidation)
	}
	switch {
	case corpus.Status == models.StatusProcessing && !force:
		return nil, fmt.Errorf("%w: %s", core.ErrAlreadyProcessing, corpus.ID)
	case corpus.IsReady() && !force:
		return corpus, nil
	}

	if err := s.ingestor.Enqueue(ctx, ingestion.Job{CorpusID: corpus.ID, Force: force}); err != nil {
		return nil, err
	}
	return corpus, nil
}

// Delete removes a caller's document: vectors, chunk rows, the corpus row
// (sessions cascade) and finally the stored file.
func (s *CorpusService) Delete(ctx context.Context, callerID, id string) error {
	corpus, err := s.Get(ctx, callerID, id)
	if err != nil {
		return err
	}
	if corpus.OwnerID == "" {
		return fmt.Errorf("%w: shared corpora cannot be deleted", core.ErrValidation)
	}

	if err := s.index.Purge(ctx, s.index.Collection(corpus)); err != nil {
		return err
	}
	if err := s.db.DeleteChunksByCorpus(ctx, corpus.ID); err != nil {
		return err
	}
	if err := s.db.DeleteCorpus(ctx, corpus.ID); err != nil {
		return err
	}

	bucket, key := objectclient.ParseURL(corpus.StorageURL)
	if err := s.storage.DeleteFile(ctx, bucket, key); err != nil {
		log.Printf("CorpusService: delete file for corpus %s failed: %v", corpus.ID, err)
	}
	return nil
}

// TitleFromFileName turns "office_lease.pdf" into "Office Lease".
func TitleFromFileName(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Join(strings.Fields(strings.ReplaceAll(base, "_", " ")), " ")
	return cases.Title(language.Und).String(base)
}
