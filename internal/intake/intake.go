package intake

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitapi/internal/config"
	"remitapi/internal/logging"
	"remitapi/internal/model"
	"remitapi/internal/registry"
	"remitapi/internal/repository"
	"remitapi/internal/storage"
	"remitapi/internal/textextract"
)

// Reason names why an upload was not admitted.
type Reason string

const (
	ReasonDuplicate         Reason = "duplicate"
	ReasonUnsupportedFormat Reason = "unsupported_format"
	ReasonTooLarge          Reason = "too_large"
	ReasonTooSmall          Reason = "too_small"
)

// Rejection is returned when an upload is refused. For duplicates ExistingID
// names the canonical document when it is already stored.
type Rejection struct {
	Reason     Reason
	ExistingID string
	Exported   bool
	Detail     string
}

func (r *Rejection) Error() string {
	if r.Detail != "" {
		return fmt.Sprintf("intake rejected: %s: %s", r.Reason, r.Detail)
	}
	return fmt.Sprintf("intake rejected: %s", r.Reason)
}

// Request is one upload.
type Request struct {
	Data       []byte
	Filename   string
	OrgID      string
	UploadedBy string
}

// Intake admits exactly one document per (org, content hash).
type Intake struct {
	docs   repository.DocumentRepository
	store  storage.Storage
	reg    registry.Registry
	cfg    config.IntakeConfig
	logger *zap.Logger
	now    func() time.Time
}

func New(docs repository.DocumentRepository, store storage.Storage, reg registry.Registry, cfg config.IntakeConfig, logger *zap.Logger) *Intake {
	return &Intake{
		docs:   docs,
		store:  store,
		reg:    reg,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "intake")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Hash is the content fingerprint: SHA-256 hex of the raw bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Admit validates, fingerprints and stores an upload. The returned document
// starts in ai_processing. Refusals are *Rejection errors.
func (in *Intake) Admit(ctx context.Context, req Request) (*model.Document, error) {
	if req.OrgID == "" {
		return nil, errors.New("org id is required")
	}
	size := int64(len(req.Data))
	if in.cfg.MaxBytes > 0 && size > in.cfg.MaxBytes {
		return nil, &Rejection{Reason: ReasonTooLarge, Detail: fmt.Sprintf("%d bytes exceeds %d", size, in.cfg.MaxBytes)}
	}
	if size < int64(in.cfg.MinBytes) || size == 0 {
		return nil, &Rejection{Reason: ReasonTooSmall, Detail: fmt.Sprintf("%d bytes", size)}
	}
	format, ok := textextract.Sniff(req.Data)
	if !ok {
		return nil, &Rejection{Reason: ReasonUnsupportedFormat, Detail: "content signature not recognized"}
	}

	hash := Hash(req.Data)
	if existing, err := in.docs.FindByHash(ctx, req.OrgID, hash); err == nil {
		return nil, duplicateOf(existing)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup content hash: %w", err)
	}

	claimID := req.OrgID + ":" + hash
	if err := in.claim(ctx, claimID, req.OrgID, hash, req.UploadedBy); err != nil {
		return nil, err
	}

	key := storage.DocumentKey(req.OrgID, hash, format.Ext)
	if _, err := in.store.Put(ctx, key, bytes.NewReader(req.Data), storage.PutObjectOptions{
		Size:        size,
		ContentType: format.Mime,
		Metadata:    map[string]string{"original-filename": req.Filename, "content-hash": hash},
	}); err != nil {
		in.release(ctx, claimID)
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := in.now()
	doc := &model.Document{
		ID:          uuid.NewString(),
		OrgID:       req.OrgID,
		ContentHash: hash,
		Filename:    req.Filename,
		StorageRef:  key,
		MimeType:    format.Mime,
		SizeBytes:   size,
		Status:      model.DocumentProcessing,
		UploadedBy:  req.UploadedBy,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	saved, err := in.docs.Create(ctx, doc)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost to a writer that bypassed the gate; its object is the same bytes under the same key.
		if existing, ferr := in.docs.FindByHash(ctx, req.OrgID, hash); ferr == nil {
			return nil, duplicateOf(existing)
		}
		return nil, &Rejection{Reason: ReasonDuplicate}
	}
	if err != nil {
		if delErr := in.store.Delete(ctx, key); delErr != nil {
			logging.For(ctx, in.logger).Warn("rollback storage failed",
				zap.String("event", "intake.rollback_failed"),
				zap.String("storage_ref", key),
				zap.Error(delErr),
			)
		}
		in.release(ctx, claimID)
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	logging.For(ctx, in.logger).Info("document admitted",
		zap.String("event", "intake.admitted"),
		zap.String("document_id", saved.ID),
		zap.String("org_id", saved.OrgID),
		zap.String("content_hash", hash),
		zap.String("mime_type", saved.MimeType),
		zap.Int64("size_bytes", size),
	)
	return saved, nil
}

// claim takes the hash gate. A claim left behind by a writer that never
// created the document is taken over once it is older than ClaimTTL.
func (in *Intake) claim(ctx context.Context, claimID, orgID, hash, owner string) error {
	now := in.now()
	entry := registry.Entry{ID: claimID, Owner: owner, State: registry.StateRunning, LastRun: now, CreatedAt: now}
	ok, err := in.reg.AddIfAbsent(ctx, registry.NamespaceIntake, entry)
	if err != nil {
		return fmt.Errorf("claim content hash: %w", err)
	}
	if ok {
		return nil
	}

	held, err := in.reg.Get(ctx, registry.NamespaceIntake, claimID)
	if errors.Is(err, registry.ErrNotFound) {
		// Released between our add and get; one more attempt.
		if ok, err = in.reg.AddIfAbsent(ctx, registry.NamespaceIntake, entry); err == nil && ok {
			return nil
		}
		return &Rejection{Reason: ReasonDuplicate, Detail: "identical upload in progress"}
	}
	if err != nil {
		return fmt.Errorf("read content hash claim: %w", err)
	}

	if in.cfg.ClaimTTL <= 0 || now.Sub(held.CreatedAt) < in.cfg.ClaimTTL {
		return &Rejection{Reason: ReasonDuplicate, Detail: "identical upload in progress"}
	}
	if existing, err := in.docs.FindByHash(ctx, orgID, hash); err == nil {
		return duplicateOf(existing)
	}
	swapped, err := in.reg.Swap(ctx, registry.NamespaceIntake, *held, entry)
	if err != nil {
		return fmt.Errorf("take over content hash claim: %w", err)
	}
	if !swapped {
		return &Rejection{Reason: ReasonDuplicate, Detail: "identical upload in progress"}
	}
	in.logger.Warn("stale content hash claim taken over",
		zap.String("event", "intake.claim_takeover"),
		zap.String("claim", claimID),
		zap.Time("claimed_at", held.CreatedAt),
	)
	return nil
}

func (in *Intake) release(ctx context.Context, claimID string) {
	if err := in.reg.Remove(ctx, registry.NamespaceIntake, claimID); err != nil {
		in.logger.Warn("release content hash claim failed",
			zap.String("event", "intake.release_failed"),
			zap.String("claim", claimID),
			zap.Error(err),
		)
	}
}

func duplicateOf(doc *model.Document) *Rejection {
	return &Rejection{
		Reason:     ReasonDuplicate,
		ExistingID: doc.ID,
		Exported:   doc.Status == model.DocumentGenerated,
	}
}
