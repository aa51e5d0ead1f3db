package analysis

// PlanChunks partitions files into size-bounded chunks: every file lands in
// exactly one chunk and relative order is preserved. This is a stable
// partition, not a bin-pack; deterministic chunk membership beats optimal
// packing here. A file larger than the budget forms a singleton chunk and is
// never split or rejected. Empty input yields zero chunks.
func PlanChunks(files []FileInfo, budget int64) []Chunk {
	var chunks []Chunk
	var current Chunk
	var total int64

	for _, f := range files {
		if len(current.Files) > 0 && total+f.Size > budget {
			chunks = append(chunks, current)
			current = Chunk{}
			total = 0
		}
		current.Files = append(current.Files, f)
		total += f.Size
	}
	if len(current.Files) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
