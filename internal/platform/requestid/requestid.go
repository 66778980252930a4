// Package requestid mints the correlation identifiers attached to every
// request and audit event.
package requestid

import "github.com/google/uuid"

func New() string {
	return uuid.NewString()
}
