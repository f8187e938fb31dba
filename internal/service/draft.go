package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lelekart/variantmatrix/internal/domain"
	"github.com/lelekart/variantmatrix/internal/export"
	"github.com/lelekart/variantmatrix/internal/matrix"
	"github.com/lelekart/variantmatrix/internal/metrics"
	"github.com/lelekart/variantmatrix/internal/repository"
	"github.com/lelekart/variantmatrix/internal/uploader"
	apperrors "github.com/lelekart/variantmatrix/pkg/errors"
)

// Save rejections raised after the matrix gate has passed.
const (
	CodeMatrixStale       = "MATRIX_STALE"
	CodeInvalidVariantSKU = "INVALID_VARIANT_SKU"
)

// Draft limits.
const (
	MaxAttributes      = 5
	MaxValuesPerAttr   = 50
	MaxSKULength       = 100
	DefaultDraftTTL    = 24 * time.Hour
	DefaultUploadLease = 5 * time.Minute
)

// AttributeInput declares one attribute of a new draft.
type AttributeInput struct {
	Name     string   `json:"name" validate:"required,max=50"`
	Optional bool     `json:"optional"`
	Values   []string `json:"values" validate:"max=50,dive,max=100"`
}

// CreateDraftInput holds the parameters for opening a draft. Without
// attributes the draft starts with a required Color and an optional Size.
type CreateDraftInput struct {
	ProductID   string           `json:"product_id" validate:"omitempty,uuid"`
	ProductName string           `json:"product_name" validate:"max=255"`
	Attributes  []AttributeInput `json:"attributes" validate:"max=5,dive"`
}

// UploadProgress is reported after every uploaded file.
type UploadProgress struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// UploadReport summarizes a batch upload. On a partial failure it is returned
// alongside the error.
type UploadReport struct {
	Uploaded int           `json:"uploaded"`
	Total    int           `json:"total"`
	URLs     []string      `json:"urls"`
	Draft    *domain.Draft `json:"draft,omitempty"`
}

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	Draft    *domain.Draft           `json:"draft"`
	Variants []domain.ProductVariant `json:"variants"`
}

// ExportFile is a rendered spreadsheet of a draft's matrix.
type ExportFile struct {
	Filename string
	Data     []byte
}

type variantPublisher interface {
	PublishVariantsSaved(ctx context.Context, draft *domain.Draft, variants []domain.ProductVariant) error
}

// DraftConfig tunes a DraftService.
type DraftConfig struct {
	DraftTTL     time.Duration
	UploadLease  time.Duration
	Materializer matrix.Materializer
}

// DraftService implements the variant matrix workflow on top of stored drafts.
// Mutations of one draft are serialized and follow load, validate, mutate,
// save, so a rejected request leaves the stored draft untouched.
type DraftService struct {
	drafts       repository.DraftRepository
	variants     repository.VariantRepository
	uploader     uploader.Uploader
	producer     variantPublisher
	materializer matrix.Materializer
	metrics      *metrics.Metrics
	logger       *slog.Logger
	draftTTL     time.Duration
	uploadLease  time.Duration
	leaseRenewal time.Duration
	locks        *keyedMutex

	now   func() time.Time
	newID func() string
}

// NewDraftService creates a new draft service. m may be nil.
func NewDraftService(
	drafts repository.DraftRepository,
	variants repository.VariantRepository,
	up uploader.Uploader,
	producer variantPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg DraftConfig,
) *DraftService {
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = DefaultDraftTTL
	}
	if cfg.UploadLease <= 0 {
		cfg.UploadLease = DefaultUploadLease
	}
	return &DraftService{
		drafts:       drafts,
		variants:     variants,
		uploader:     up,
		producer:     producer,
		materializer: cfg.Materializer,
		metrics:      m,
		logger:       logger,
		draftTTL:     cfg.DraftTTL,
		uploadLease:  cfg.UploadLease,
		leaseRenewal: cfg.UploadLease / 3,
		locks:        newKeyedMutex(),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// CreateDraft opens a draft for ownerID. When the draft is bound to an
// existing product, its persisted variants seed the attribute values in
// first-seen order and serve as defaults for generated rows.
func (s *DraftService) CreateDraft(ctx context.Context, ownerID string, input CreateDraftInput) (*domain.Draft, error) {
	attrs, err := buildAttributes(input.Attributes)
	if err != nil {
		return nil, err
	}

	var baseline []domain.ProductVariant
	if input.ProductID != "" {
		baseline, err = s.variants.FindByProduct(ctx, input.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load variants of product %s: %w", input.ProductID, err)
		}
		s.seedValues(ctx, attrs, baseline)
	}

	now := s.now()
	draft := &domain.Draft{
		ID:          s.newID(),
		ProductID:   input.ProductID,
		ProductName: strings.TrimSpace(input.ProductName),
		OwnerID:     ownerID,
		Step:        domain.StepAttributes,
		Attributes:  attrs,
		Rows:        []domain.Row{},
		Stale:       true,
		Baseline:    baseline,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.draftTTL),
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	s.metrics.DraftCreated()

	s.logger.InfoContext(ctx, "variant draft created",
		slog.String("draft_id", draft.ID),
		slog.String("product_id", draft.ProductID),
		slog.Int("persisted_variants", len(baseline)),
	)

	return draft, nil
}

// GetDraft returns the current state of a draft.
func (s *DraftService) GetDraft(ctx context.Context, id string) (*domain.Draft, error) {
	return s.load(ctx, id)
}

// DeleteDraft discards a draft.
func (s *DraftService) DeleteDraft(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}

	s.logger.InfoContext(ctx, "variant draft deleted", slog.String("draft_id", id))
	return nil
}

// AddAttributeValue appends a trimmed value to the attribute at attrIndex.
func (s *DraftService) AddAttributeValue(ctx context.Context, id string, attrIndex int, value string) (*domain.Draft, error) {
	return s.mutate(ctx, id, func(d *domain.Draft) error {
		attr, err := attributeAt(d, attrIndex)
		if err != nil {
			return err
		}
		if len(attr.Values) >= MaxValuesPerAttr {
			return apperrors.InvalidInput(fmt.Sprintf("%s must not have more than %d values", attr.Name, MaxValuesPerAttr))
		}
		if err := attr.AddValue(value); err != nil {
			return err
		}
		d.Stale = true
		return nil
	})
}

// RemoveAttributeValue deletes the value at valueIndex of the attribute at attrIndex.
func (s *DraftService) RemoveAttributeValue(ctx context.Context, id string, attrIndex, valueIndex int) (*domain.Draft, error) {
	return s.mutate(ctx, id, func(d *domain.Draft) error {
		attr, err := attributeAt(d, attrIndex)
		if err != nil {
			return err
		}
		if err := attr.RemoveValue(valueIndex); err != nil {
			return err
		}
		d.Stale = true
		return nil
	})
}

// Configure moves the draft to the configure step, regenerating the matrix
// when attribute values changed or no rows exist yet. Every required
// attribute needs at least one value.
func (s *DraftService) Configure(ctx context.Context, id string) (*domain.Draft, error) {
	return s.mutate(ctx, id, func(d *domain.Draft) error {
		var missing []string
		for _, a := range d.Attributes {
			if !a.Ready() {
				missing = append(missing, a.Name)
			}
		}
		if len(missing) > 0 {
			return apperrors.InvalidInput(fmt.Sprintf("add at least one value to: %s", strings.Join(missing, ", ")))
		}

		if d.Stale || len(d.Rows) == 0 {
			s.regenerate(ctx, d)
		}
		d.Step = domain.StepConfigure
		return nil
	})
}

// EditAttributes returns the draft to the attribute step. Rows are kept
// until the next Configure.
func (s *DraftService) EditAttributes(ctx context.Context, id string) (*domain.Draft, error) {
	return s.mutate(ctx, id, func(d *domain.Draft) error {
		d.Step = domain.StepAttributes
		return nil
	})
}

// regenerate rebuilds the rows from the attributes. While an upload holds a
// lease the rows are left alone and the draft stays stale.
func (s *DraftService) regenerate(ctx context.Context, d *domain.Draft) {
	if d.UploadInFlight(s.now()) {
		d.Stale = true
		s.logger.InfoContext(ctx, "upload in flight, matrix regeneration deferred",
			slog.String("draft_id", d.ID),
			slog.Int("uploads_in_flight", d.UploadsInFlight),
		)
		return
	}

	combos := matrix.Generate(d.Attributes)
	d.Rows = s.materializer.Materialize(d.ProductName, combos, d.Rows, d.Baseline)
	d.Stale = false
	s.metrics.Regenerated(len(d.Rows))

	s.logger.DebugContext(ctx, "variant matrix regenerated",
		slog.String("draft_id", d.ID),
		slog.Int("rows", len(d.Rows)),
	)
}

// UpdateRow applies patch to one row.
func (s *DraftService) UpdateRow(ctx context.Context, id string, rowID domain.RowKey, patch domain.RowPatch) (*domain.Draft, error) {
	patch = trimSKU(patch)
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	return s.mutate(ctx, id, func(d *domain.Draft) error {
		row, err := rowByID(d, rowID)
		if err != nil {
			return err
		}
		patch.Apply(row)
		return nil
	})
}

// UpdateAllRows applies patch to every row. SKUs identify a single row and
// cannot be applied to all of them.
func (s *DraftService) UpdateAllRows(ctx context.Context, id string, patch domain.RowPatch) (*domain.Draft, error) {
	if patch.SKU != nil {
		return nil, apperrors.InvalidInput("sku cannot be applied to every row")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	return s.mutate(ctx, id, func(d *domain.Draft) error {
		for i := range d.Rows {
			patch.Apply(&d.Rows[i])
		}
		return nil
	})
}

// AttachUploads uploads files one at a time and appends each resulting URL to
// the row as soon as it is stored. Every file is validated before the first
// upload. The first failing upload stops the batch; images uploaded before it
// stay on the row and the returned report counts them. progress may be nil.
//
// Matrix regeneration is held off while the batch runs.
func (s *DraftService) AttachUploads(ctx context.Context, id string, rowID domain.RowKey, files []uploader.File, progress func(UploadProgress)) (*UploadReport, error) {
	if len(files) == 0 {
		return nil, apperrors.InvalidInput("at least one file is required")
	}
	for i := range files {
		if err := uploader.Validate(&files[i]); err != nil {
			return nil, err
		}
	}

	draft, err := s.mutate(ctx, id, func(d *domain.Draft) error {
		if _, err := rowByID(d, rowID); err != nil {
			return err
		}
		d.BeginUpload(s.now(), s.uploadLease)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &UploadReport{Total: len(files), URLs: []string{}, Draft: draft}
	stopRenewal := s.renewUploadLease(context.WithoutCancel(ctx), id)
	uploadErr := s.uploadAll(ctx, id, rowID, files, report, progress)
	stopRenewal()

	released, err := s.mutate(context.WithoutCancel(ctx), id, func(d *domain.Draft) error {
		d.EndUpload()
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to release upload lease",
			slog.String("draft_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		report.Draft = released
	}

	if uploadErr != nil {
		return report, uploadErr
	}

	s.logger.InfoContext(ctx, "variant images uploaded",
		slog.String("draft_id", id),
		slog.String("row_id", string(rowID)),
		slog.Int("count", report.Uploaded),
	)
	return report, nil
}

// renewUploadLease keeps the draft's upload lease alive while a single slow
// upload is in progress. The returned func stops renewal and waits for it;
// it must not be called while holding the draft's lock.
func (s *DraftService) renewUploadLease(ctx context.Context, id string) (stop func()) {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(s.leaseRenewal)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_, err := s.mutate(ctx, id, func(d *domain.Draft) error {
					d.RenewUploadLease(s.now(), s.uploadLease)
					return nil
				})
				if err != nil {
					s.logger.WarnContext(ctx, "failed to renew upload lease",
						slog.String("draft_id", id),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func (s *DraftService) uploadAll(ctx context.Context, id string, rowID domain.RowKey, files []uploader.File, report *UploadReport, progress func(UploadProgress)) error {
	// Stored uploads are recorded even if the caller goes away.
	detached := context.WithoutCancel(ctx)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("upload stopped after %d of %d files: %w", report.Uploaded, report.Total, err)
		}

		url, err := s.uploader.Upload(ctx, f)
		if err != nil {
			s.metrics.Upload(metrics.ResultFailure)
			s.logger.ErrorContext(ctx, "variant image upload failed",
				slog.String("draft_id", id),
				slog.String("row_id", string(rowID)),
				slog.String("file", f.Name),
				slog.Int("uploaded", report.Uploaded),
				slog.Int("total", report.Total),
				slog.String("error", err.Error()),
			)
			return apperrors.BadGateway(
				fmt.Sprintf("upload of %q failed after %d of %d images", f.Name, report.Uploaded, report.Total), err)
		}
		s.metrics.Upload(metrics.ResultSuccess)

		draft, err := s.mutate(detached, id, func(d *domain.Draft) error {
			row, err := rowByID(d, rowID)
			if err != nil {
				return err
			}
			row.AppendImages(url)
			d.RenewUploadLease(s.now(), s.uploadLease)
			return nil
		})
		if err != nil {
			return fmt.Errorf("attach uploaded image: %w", err)
		}

		report.Uploaded++
		report.URLs = append(report.URLs, url)
		report.Draft = draft
		if progress != nil {
			progress(UploadProgress{
				Done:    report.Uploaded,
				Total:   report.Total,
				Percent: report.Uploaded * 100 / report.Total,
			})
		}
	}
	return nil
}

// AttachURL appends a linked image to the row.
func (s *DraftService) AttachURL(ctx context.Context, id string, rowID domain.RowKey, url string) (*domain.Draft, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperrors.InvalidInput("image url must not be blank")
	}
	return s.attachLinks(ctx, id, rowID, []string{url})
}

// AttachURLs appends one image per non-blank line of text.
func (s *DraftService) AttachURLs(ctx context.Context, id string, rowID domain.RowKey, text string) (*domain.Draft, error) {
	urls := ParseURLList(text)
	if len(urls) == 0 {
		return nil, apperrors.InvalidInput("at least one image url is required")
	}
	return s.attachLinks(ctx, id, rowID, urls)
}

func (s *DraftService) attachLinks(ctx context.Context, id string, rowID domain.RowKey, urls []string) (*domain.Draft, error) {
	return s.mutate(ctx, id, func(d *domain.Draft) error {
		row, err := rowByID(d, rowID)
		if err != nil {
			return err
		}
		row.AppendImages(urls...)
		return nil
	})
}

// ParseURLList splits newline-delimited text into trimmed, non-blank lines.
func ParseURLList(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

// RemoveImage deletes the k-th real image of the row. Removing the last one
// puts the placeholder back.
func (s *DraftService) RemoveImage(ctx context.Context, id string, rowID domain.RowKey, k int) (*domain.Draft, error) {
	return s.mutate(ctx, id, func(d *domain.Draft) error {
		row, err := rowByID(d, rowID)
		if err != nil {
			return err
		}
		return row.RemoveImage(k, s.materializer.PlaceholderURL(row.Combination))
	})
}

// Save validates the enabled rows and replaces the product's variants with
// them in one batch. Rejections happen before any write. A failed event
// publish is logged and does not fail the save.
func (s *DraftService) Save(ctx context.Context, id string) (*SaveResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.UploadInFlight(s.now()) {
		s.metrics.Saved(metrics.ResultRejected, 0)
		return nil, apperrors.Conflict("images are still uploading to this draft; save once the upload finishes")
	}

	variants, err := s.buildVariants(draft)
	if err != nil {
		s.metrics.Saved(metrics.ResultRejected, 0)
		s.logger.InfoContext(ctx, "variant save rejected",
			slog.String("draft_id", id),
			slog.String("reason", err.Error()),
		)
		return nil, err
	}

	if err := s.variants.ReplaceForProduct(ctx, draft.ProductID, variants); err != nil {
		s.metrics.Saved(metrics.ResultFailure, 0)
		s.logger.ErrorContext(ctx, "failed to save variants",
			slog.String("draft_id", id),
			slog.String("product_id", draft.ProductID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Wrap(err, "save variants of product "+draft.ProductID)
	}

	if err := s.producer.PublishVariantsSaved(ctx, draft, variants); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish variants_saved event",
			slog.String("product_id", draft.ProductID),
			slog.String("error", err.Error()),
		)
	}

	now := s.now()
	draft.SavedAt = &now
	draft.Baseline = make([]domain.ProductVariant, len(variants))
	for i, v := range variants {
		draft.Baseline[i] = v.Clone()
	}
	if err := s.store(ctx, draft); err != nil {
		return nil, err
	}
	s.metrics.Saved(metrics.ResultSuccess, len(variants))

	s.logger.InfoContext(ctx, "product variants saved",
		slog.String("draft_id", id),
		slog.String("product_id", draft.ProductID),
		slog.Int("count", len(variants)),
	)

	return &SaveResult{Draft: draft, Variants: variants}, nil
}

func (s *DraftService) buildVariants(d *domain.Draft) ([]domain.ProductVariant, error) {
	variants, err := matrix.BuildVariants(d.ProductID, d.Rows, s.newID)
	if err != nil {
		return nil, err
	}
	if d.Stale {
		return nil, apperrors.Unprocessable(CodeMatrixStale, "attribute values changed; configure the matrix before saving")
	}

	enabled := d.EnabledRows()
	owner := make(map[string]string, len(variants))
	now := s.now()
	for i := range variants {
		label := enabled[i].Label
		sku := variants[i].SKU
		if sku == "" {
			return nil, apperrors.Unprocessable(CodeInvalidVariantSKU, fmt.Sprintf("sku is required for %s", label))
		}
		if utf8.RuneCountInString(sku) > MaxSKULength {
			return nil, apperrors.Unprocessable(CodeInvalidVariantSKU,
				fmt.Sprintf("sku for %s is longer than %d characters", label, MaxSKULength))
		}
		if prev, ok := owner[sku]; ok {
			return nil, apperrors.Unprocessable(CodeInvalidVariantSKU,
				fmt.Sprintf("sku %q is used by both %s and %s", sku, prev, label))
		}
		owner[sku] = label
		variants[i].CreatedAt = now
		variants[i].UpdatedAt = now
	}
	return variants, nil
}

// Export renders the draft's matrix as a spreadsheet.
func (s *DraftService) Export(ctx context.Context, id string) (*ExportFile, error) {
	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.WriteMatrix(&buf, draft); err != nil {
		return nil, fmt.Errorf("export draft %s: %w", id, err)
	}
	return &ExportFile{Filename: export.Filename(draft), Data: buf.Bytes()}, nil
}

// mutate runs fn on a freshly loaded draft under the draft's lock and saves
// the result. Nothing is written when fn fails.
func (s *DraftService) mutate(ctx context.Context, id string, fn func(*domain.Draft) error) (*domain.Draft, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return nil, err
	}
	if err := s.store(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) load(ctx context.Context, id string) (*domain.Draft, error) {
	draft, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return draft, nil
}

func (s *DraftService) store(ctx context.Context, d *domain.Draft) error {
	now := s.now()
	d.Version++
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.draftTTL)
	if err := s.drafts.Save(ctx, d); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func buildAttributes(inputs []AttributeInput) ([]domain.Attribute, error) {
	if len(inputs) == 0 {
		return domain.DefaultAttributes(), nil
	}
	if len(inputs) > MaxAttributes {
		return nil, apperrors.InvalidInput(fmt.Sprintf("a draft must not have more than %d attributes", MaxAttributes))
	}

	attrs := make([]domain.Attribute, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("attribute name must not be blank")
		}
		if slices.ContainsFunc(attrs, func(a domain.Attribute) bool { return a.Name == name }) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("attribute %q is declared twice", name))
		}

		if len(in.Values) > MaxValuesPerAttr {
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s must not have more than %d values", name, MaxValuesPerAttr))
		}
		attr := domain.Attribute{Name: name, Values: []string{}, Optional: in.Optional}
		for _, v := range in.Values {
			if err := attr.AddValue(v); err != nil {
				return nil, err
			}
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// seedValues appends the values found on persisted variants, in the order
// they are first seen, to the matching attributes. Values an attribute would
// reject are skipped.
func (s *DraftService) seedValues(ctx context.Context, attrs []domain.Attribute, variants []domain.ProductVariant) {
	for i := range attrs {
		attr := &attrs[i]
		for j := range variants {
			v := strings.TrimSpace(variants[j].AttributeValue(attr.Name))
			if v == "" || slices.Contains(attr.Values, v) {
				continue
			}
			var err error
			if len(attr.Values) >= MaxValuesPerAttr {
				err = fmt.Errorf("%s already has %d values", attr.Name, MaxValuesPerAttr)
			} else {
				err = attr.AddValue(v)
			}
			if err != nil {
				s.logger.WarnContext(ctx, "skipped persisted attribute value",
					slog.String("attribute", attr.Name),
					slog.String("variant_id", variants[j].ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func attributeAt(d *domain.Draft, i int) (*domain.Attribute, error) {
	if i < 0 || i >= len(d.Attributes) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("attribute index %d out of range", i))
	}
	return &d.Attributes[i], nil
}

func rowByID(d *domain.Draft, id domain.RowKey) (*domain.Row, error) {
	row := d.FindRow(id)
	if row == nil {
		return nil, apperrors.NotFound("row", string(id))
	}
	return row, nil
}

func trimSKU(p domain.RowPatch) domain.RowPatch {
	if p.SKU != nil {
		sku := strings.TrimSpace(*p.SKU)
		p.SKU = &sku
	}
	return p
}
