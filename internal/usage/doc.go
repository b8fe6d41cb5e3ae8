// Package usage provides mailbox disk usage collection and aggregation.
//
// It turns raw mailbox listings from a Source into flat UsageRecords,
// ranks accounts by total size, largest mailbox or largest domain, and
// builds either a nested account/domain/mailbox report or a flat top-N view.
package usage
