package inverseindex

import (
	"context"

	"github.com/faithful-index/minhash-neighbors/mhash"
)

// signatureResult is what computing one instance's signature produces:
// its MinHash signature and signature-identifier. This is read-only work
// that runs outside any lock, same as the rest of the fit/query pipeline.
type signatureResult struct {
	instanceID uint64
	sid        uint64
	signature  []uint64
}

// signatureWorkItem is one instance's raw feature row, queued up for a
// signatureWorker to turn into a signatureResult.
type signatureWorkItem struct {
	instanceID uint64
	features   []uint64
}

// signatureWorker computes the signatures for one chunk of instances
// concurrently with every other chunk; it touches no shared state,
// matching the per-item worker shape of cmd-x-index-gsfa.go's
// txParserWorker, widened from one instance to a chunk so that
// ChunkSize, not one-instance-per-submission, is the unit of work handed
// to the pool.
type signatureWorker struct {
	items    []signatureWorkItem
	params   mhash.Params
	maskBits uint
	done     func()
}

func newSignatureWorker(items []signatureWorkItem, params mhash.Params, maskBits uint, done func()) *signatureWorker {
	return &signatureWorker{items: items, params: params, maskBits: maskBits, done: done}
}

func (w *signatureWorker) Run(ctx context.Context) interface{} {
	defer w.done()
	results := make([]signatureResult, len(w.items))
	for i, item := range w.items {
		signature := mhash.Signature(item.features, w.params)
		if w.maskBits > 0 {
			mask := ^((uint64(1) << w.maskBits) - 1)
			for j, v := range signature {
				signature[j] = v & mask
			}
		}
		results[i] = signatureResult{
			instanceID: item.instanceID,
			sid:        mhash.SignatureID(item.features),
			signature:  signature,
		}
	}
	return results
}
