package config

import (
	"time"

	"crm_sheet_sync/internal/retry"
)

// ResilienceConfig groups the retry budgets of the sync's blocking
// operations. The update PUT itself is deliberately absent: its only retry
// is the single 401 token-refresh built into the CRM client.
type ResilienceConfig struct {
	PushLoop   retry.Config
	CRMRead    retry.Config
	SheetRead  retry.Config
	SheetWrite retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	PushLoop: retry.Config{
		MaxRetries: 3,
		BaseDelay:  5 * time.Second,
		MaxDelay:   60 * time.Second,
		Timeout:    30 * time.Second,
	},
	CRMRead: retry.Config{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
	SheetRead: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
	SheetWrite: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    15 * time.Second,
	},
}
