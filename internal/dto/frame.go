package dto

type FrameAccepted struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Received uint64 `json:"received"`
}
