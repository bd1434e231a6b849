package sales

// Route picks the next node from the classified intent and the known slots.
// HIGH_INTENT is checked first so the decision never depends on evaluation order.
//
//	high_intent + all slots  -> lead capture
//	high_intent + missing    -> stop (the reply already asked for them)
//	inquiry                  -> knowledge
//	casual / unset           -> stop
func Route(intent Intent, slots Slots) Next {
	switch intent {
	case IntentHighIntent:
		if slots.Complete() {
			return NextLeadCapture
		}
		return NextStop
	case IntentInquiry:
		return NextKnowledge
	default:
		return NextStop
	}
}
