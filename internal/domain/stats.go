package domain

type StatsSnapshot struct {
	Entries      int64 `json:"entries"`
	Directories  int64 `json:"directories"`
	Files        int64 `json:"files"`
	Errors       int64 `json:"errors"`
	Size         int64 `json:"size"`
	Blocks       int64 `json:"blocks"`
	SharedBlocks int64 `json:"shared_blocks"`
}
