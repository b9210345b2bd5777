package quiz

// stepDoneMsg is sent when a blocking session call returns.
type stepDoneMsg struct {
	Err error
}
