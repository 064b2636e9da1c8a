package textutil

import "strings"

// ChunkParams configures Chunk. DefaultChunkParams returns the defaults;
// Chunk uses the values exactly as given, zero values included.
type ChunkParams struct {
	ChunkSize int // target size in characters before a chunk is emitted
	Overlap   int // characters of trailing context carried into the next chunk
	HardLimit int // absolute maximum characters in a single chunk
}

// DefaultChunkParams matches the reference chunker's defaults.
func DefaultChunkParams() ChunkParams {
	return ChunkParams{ChunkSize: 900, Overlap: 120, HardLimit: 1400}
}

// Chunk packs the sentences of text into a rolling buffer, emitting a chunk
// each time adding the next sentence would exceed ChunkSize characters
// (counting a one-character joiner). Each emitted chunk is truncated to
// HardLimit; its trailing sentences, up to Overlap characters, seed the next
// chunk so that an overlap region is a suffix of one chunk and a prefix of
// the next.
func Chunk(text string, params ChunkParams) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buf []string
	bufLen := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		joined := TruncateRunes(strings.Join(buf, " "), params.HardLimit)
		chunks = append(chunks, joined)

		// Retain a whole-sentence suffix of buf up to Overlap characters,
		// selected right-to-left, preserving original order. Overlap<=0
		// retains nothing, and the first candidate is held to the same
		// bound as the rest, so a single sentence longer than Overlap is
		// dropped rather than always carried forward.
		var kept []string
		keepLen := 0
		if params.Overlap > 0 {
			for i := len(buf) - 1; i >= 0; i-- {
				prev := buf[i]
				if keepLen+1+len(prev) > params.Overlap {
					break
				}
				kept = append(kept, prev)
				keepLen += 1 + len(prev)
			}
			// reverse kept to restore original order
			for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
				kept[i], kept[j] = kept[j], kept[i]
			}
		}

		buf = kept
		bufLen = keepLen
	}

	for _, sent := range sentences {
		sl := len(sent)
		if len(buf) > 0 && bufLen+1+sl > params.ChunkSize {
			flush()
		}
		if len(buf) > 0 {
			bufLen++ // joiner
		}
		buf = append(buf, sent)
		bufLen += sl
	}

	if len(buf) > 0 {
		joined := TruncateRunes(strings.Join(buf, " "), params.HardLimit)
		chunks = append(chunks, joined)
	}

	return chunks
}
