package payout

import "strings"

// OutcomeKind classifies an engine result for the dispatcher. Classification
// is based on the relaying node's engine result code, not ledger finality:
// acceptance by the node counts as success, the engine does not wait for
// validation.
type OutcomeKind int

const (
	// OutcomeSuccess is a definitive tesSUCCESS from the engine.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeSequenceConflict covers tefPAST_SEQ and the telCAN_NOT_QUEUE
	// family: the transaction's sequence number was already consumed or the
	// node cannot queue it yet. Eligible for exactly one resubmit.
	OutcomeSequenceConflict

	// OutcomeOther is every remaining engine result. These still count as
	// sent for bookkeeping: the transaction may have reached the network
	// even when the code reads as a rejection, and re-sending on the next
	// run would risk a double pay. Only tesSUCCESS produces an audit row.
	OutcomeOther

	// OutcomeSubmitFailed is the sentinel for a transport-level submission
	// failure. Nothing reached the node, so the recipient is recorded as
	// failed rather than sent.
	OutcomeSubmitFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSequenceConflict:
		return "sequence-conflict"
	case OutcomeOther:
		return "other"
	case OutcomeSubmitFailed:
		return "submit-failed"
	default:
		return "unknown"
	}
}

const (
	resultSuccess     = "tesSUCCESS"
	resultPastSeq     = "tefPAST_SEQ"
	resultCannotQueue = "telCAN_NOT_QUEUE"
)

// Classify maps a raw engine result code onto the outcome taxonomy.
func Classify(engineResult string) OutcomeKind {
	switch {
	case engineResult == resultSuccess:
		return OutcomeSuccess
	case engineResult == resultPastSeq,
		strings.HasPrefix(engineResult, resultCannotQueue):
		return OutcomeSequenceConflict
	default:
		return OutcomeOther
	}
}

// IsPastSequence reports whether the code is the duplicate/past sequence
// rejection specifically. A second consecutive past-sequence conflict aborts
// the batch: it is the strongest available signal that the sender's account
// sequence has desynchronized.
func IsPastSequence(engineResult string) bool {
	return engineResult == resultPastSeq
}

// CountsAsSent reports whether an outcome marks the recipient as paid in the
// distribution store.
func (k OutcomeKind) CountsAsSent() bool {
	return k != OutcomeSequenceConflict && k != OutcomeSubmitFailed
}
