package domain

import (
	"slices"
	"time"
)

// Draft steps.
const (
	StepAttributes = "attributes"
	StepConfigure  = "configure"
)

// Draft is the server-side state of one variant-editing session.
type Draft struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id,omitempty"`
	ProductName string      `json:"product_name"`
	OwnerID     string      `json:"owner_id,omitempty"`
	Step        string      `json:"step"`
	Attributes  []Attribute `json:"attributes"`
	Rows        []Row       `json:"rows"`
	// Stale is set when attribute values changed since rows were generated.
	Stale bool `json:"stale"`
	// Baseline holds the product's persisted variants, used as defaults for
	// combinations that have no row yet.
	Baseline             []ProductVariant `json:"baseline,omitempty"`
	UploadsInFlight      int              `json:"uploads_in_flight"`
	UploadLeaseExpiresAt *time.Time       `json:"upload_lease_expires_at,omitempty"`
	Version              int              `json:"version"`
	SavedAt              *time.Time       `json:"saved_at,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	ExpiresAt            time.Time        `json:"expires_at"`
}

// FindRow returns the row with the given id, or nil.
func (d *Draft) FindRow(id RowKey) *Row {
	for i := range d.Rows {
		if d.Rows[i].ID == id {
			return &d.Rows[i]
		}
	}
	return nil
}

// ImageIndex returns the real images of every row keyed by row id. It is
// derived from Rows on each call.
func (d *Draft) ImageIndex() map[RowKey][]string {
	idx := make(map[RowKey][]string, len(d.Rows))
	for i := range d.Rows {
		if imgs := d.Rows[i].RealImages(); len(imgs) > 0 {
			idx[d.Rows[i].ID] = imgs
		}
	}
	return idx
}

// UploadInFlight reports whether an upload holds an unexpired lease at now.
func (d *Draft) UploadInFlight(now time.Time) bool {
	if d.UploadsInFlight <= 0 || d.UploadLeaseExpiresAt == nil {
		return false
	}
	return now.Before(*d.UploadLeaseExpiresAt)
}

// BeginUpload registers an upload and extends the lease to now+lease. An
// expired lease resets the counter first, so a crashed upload is forgotten.
func (d *Draft) BeginUpload(now time.Time, lease time.Duration) {
	if !d.UploadInFlight(now) {
		d.UploadsInFlight = 0
	}
	d.UploadsInFlight++
	expires := now.Add(lease)
	d.UploadLeaseExpiresAt = &expires
}

// RenewUploadLease moves the lease of running uploads out to now+lease.
func (d *Draft) RenewUploadLease(now time.Time, lease time.Duration) {
	if d.UploadsInFlight <= 0 {
		return
	}
	expires := now.Add(lease)
	d.UploadLeaseExpiresAt = &expires
}

// EndUpload releases one upload registration.
func (d *Draft) EndUpload() {
	if d.UploadsInFlight > 0 {
		d.UploadsInFlight--
	}
	if d.UploadsInFlight == 0 {
		d.UploadLeaseExpiresAt = nil
	}
}

// EnabledRows returns the rows with Enabled set, in row order.
func (d *Draft) EnabledRows() []Row {
	var out []Row
	for _, r := range d.Rows {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Draft) Clone() *Draft {
	c := *d

	c.Attributes = make([]Attribute, len(d.Attributes))
	for i, a := range d.Attributes {
		a.Values = slices.Clone(a.Values)
		c.Attributes[i] = a
	}

	c.Rows = make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		r.Combination = slices.Clone(r.Combination)
		r.Images = slices.Clone(r.Images)
		c.Rows[i] = r
	}

	if d.Baseline != nil {
		c.Baseline = make([]ProductVariant, len(d.Baseline))
		for i, v := range d.Baseline {
			c.Baseline[i] = v.Clone()
		}
	}

	c.UploadLeaseExpiresAt = clonePtr(d.UploadLeaseExpiresAt)
	c.SavedAt = clonePtr(d.SavedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
