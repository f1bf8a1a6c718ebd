// pkg/persister/encode.go
package persister

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/DanCorvesor/environ-policies/pkg/model"
)

// encodeRecord renders a record's fields as insert arguments in schema
// column order. Multi-value fields go through pq.Array so they land in
// text[] columns with element order preserved.
func encodeRecord(record model.Record) ([]interface{}, error) {
	switch r := record.(type) {
	case *model.Company:
		return []interface{}{
			r.ID,
			r.Name,
			r.OperatingJurisdiction,
			r.LastLogin,
			r.Sector,
		}, nil
	case *model.Policy:
		return []interface{}{
			r.ID,
			r.Name,
			r.PublishedDate,
			r.Description,
			r.Geography,
			r.SourceURL,
			pq.Array(r.Topics),
			pq.Array(r.Sectors),
			r.Status,
			r.UpdatedDate,
		}, nil
	default:
		return nil, fmt.Errorf("cannot encode record type %T", record)
	}
}
