package dto

type VertexGenerateRequest struct {
	Model           string
	System          string
	UserMessage     string
	ResponseJSON    bool
	Temperature     *float32
	MaxOutputTokens *int32
}

type VertexGenerateResponse struct {
	Text         string
	FinishReason string
	Raw          any
}
