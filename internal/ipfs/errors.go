package ipfs

import "fmt"

// UploadError reports a failed pin, keeping the provider's raw body for logs.
type UploadError struct {
	Status int
	Body   string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pinata upload failed: %v", e.Err)
	}
	return fmt.Sprintf("pinata upload failed: status %d body: %s", e.Status, e.Body)
}

func (e *UploadError) Unwrap() error { return e.Err }
