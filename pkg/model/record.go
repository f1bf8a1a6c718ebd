// pkg/model/record.go
package model

import (
	"strconv"
	"time"
)

// Record is a validated, schema-conformant row ready for persistence.
type Record interface {
	// RecordKind returns the kind whose schema the record satisfies.
	RecordKind() Kind
	// Key returns the primary-key value as text, used for duplicate
	// detection within a batch.
	Key() string
}

// Company is a validated companies row.
type Company struct {
	ID                    int64      `db:"id"`
	Name                  string     `db:"name"`
	OperatingJurisdiction string     `db:"operating_jurisdiction"`
	LastLogin             *time.Time `db:"last_login"`
	Sector                string     `db:"sector"`
}

func (c *Company) RecordKind() Kind { return KindCompany }

func (c *Company) Key() string { return strconv.FormatInt(c.ID, 10) }

// Policy is a validated policies row.
type Policy struct {
	ID            string     `db:"id"`
	Name          string     `db:"name"`
	PublishedDate *time.Time `db:"published_date"`
	Description   *string    `db:"description"`
	Geography     string     `db:"geography"`
	SourceURL     *string    `db:"source_url"`
	Topics        []string   `db:"topics"`
	Sectors       []string   `db:"sectors"`
	Status        *string    `db:"status"`
	UpdatedDate   *time.Time `db:"updated_date"`
}

func (p *Policy) RecordKind() Kind { return KindPolicy }

func (p *Policy) Key() string { return p.ID }
