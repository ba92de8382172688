package pipe

// SendRecords forwards records to outCh until they run out or stopped closes.
func SendRecords[R any](records []R, outCh chan<- R, stopped <-chan struct{}) {
	for _, record := range records {
		if isClosed(stopped) {
			return
		}

		select {
		case <-stopped:
			return
		case outCh <- record:
		}
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
