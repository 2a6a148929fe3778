// Package result defines the per-item outcome records threaded from the
// leaf operations (parameter writes, setup regeneration, G-code emission)
// up to the order-level report.
package result

// Result records the outcome of one named operation within a batch.
type Result struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PostResult is a Result plus the output file path when post processing
// produced one.
type PostResult struct {
	Result
	OutputFile string `json:"output_file,omitempty"`
}

// Ok builds a successful Result.
func Ok(name, message string) Result {
	return Result{Name: name, Success: true, Message: message}
}

// Fail builds a failed Result.
func Fail(name, message string) Result {
	return Result{Name: name, Success: false, Message: message}
}

// CountSuccess returns how many results in the batch succeeded.
func CountSuccess(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

// Failures returns the failed subset of a batch, in order.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
