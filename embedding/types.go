package embedding

// ProgressCallback is called during batch embedding operations to report
// progress. current is the number of items processed, total is the total
// number of items in the batch.
type ProgressCallback func(current, total int)
