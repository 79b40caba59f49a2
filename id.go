package ingestsync

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

const recordIDSeparator = "_"

// RecordID is the stable composite key of a record in the remote system:
// site_id + "_" + tenant_id + "_" + item_id.
//
// It can be rebuilt from its parts alone, so deletes can target records whose
// host-side object no longer exists.
//
//nolint:recvcheck // Scan requires a pointer receiver, Value uses value receiver for driver.Valuer.
type RecordID struct {
	SiteID   string
	TenantID string
	ItemID   int64
}

// NewRecordID builds a RecordID. Empty site or tenant ids default to "0".
func NewRecordID(siteID, tenantID string, itemID int64) RecordID {
	if siteID == "" {
		siteID = "0"
	}
	if tenantID == "" {
		tenantID = "0"
	}

	return RecordID{SiteID: siteID, TenantID: tenantID, ItemID: itemID}
}

// IsZero reports whether the RecordID is unset.
func (id RecordID) IsZero() bool {
	return id == RecordID{}
}

// String returns the wire representation.
func (id RecordID) String() string {
	if id.IsZero() {
		return ""
	}

	return id.SiteID + recordIDSeparator + id.TenantID + recordIDSeparator + strconv.FormatInt(id.ItemID, 10)
}

// MarshalText implements encoding.TextMarshaler.
func (id RecordID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *RecordID) UnmarshalText(text []byte) error {
	parsed, err := ParseRecordID(string(text))
	if err != nil {
		return err
	}
	*id = parsed

	return nil
}

// Scan implements sql.Scanner for textual record ids.
// NULL is treated as ErrInvalidRecordID.
func (id *RecordID) Scan(src any) error {
	switch value := src.(type) {
	case nil:
		return ErrInvalidRecordID
	case []byte:
		return id.UnmarshalText(value)
	case string:
		return id.UnmarshalText([]byte(value))
	default:
		return fmt.Errorf("ingestsync: unsupported record id type %T: %w", src, ErrInvalidRecordID)
	}
}

// Value implements driver.Valuer.
func (id RecordID) Value() (driver.Value, error) {
	return id.String(), nil
}

// ParseRecordID parses site_tenant_item. The site id may itself contain
// underscores, so the tenant and item are taken from the right.
func ParseRecordID(value string) (RecordID, error) {
	itemSep := strings.LastIndex(value, recordIDSeparator)
	if itemSep <= 0 {
		return RecordID{}, ErrInvalidRecordID
	}
	tenantSep := strings.LastIndex(value[:itemSep], recordIDSeparator)
	if tenantSep <= 0 {
		return RecordID{}, ErrInvalidRecordID
	}

	site := value[:tenantSep]
	tenant := value[tenantSep+1 : itemSep]
	if site == "" || tenant == "" {
		return RecordID{}, ErrInvalidRecordID
	}
	item, err := strconv.ParseInt(value[itemSep+1:], 10, 64)
	if err != nil || item <= 0 {
		return RecordID{}, ErrInvalidRecordID
	}

	return RecordID{SiteID: site, TenantID: tenant, ItemID: item}, nil
}
