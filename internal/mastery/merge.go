package mastery

// Merge combines a local and a remote map card by card. The local record
// wins only when it was reviewed strictly later; ties go to the remote.
func Merge(local, remote Map) Map {
	merged := make(Map, len(local)+len(remote))
	for id, record := range remote {
		merged[id] = record
	}
	for id, record := range local {
		other, ok := merged[id]
		if !ok || record.lastReviewedMillis() > other.lastReviewedMillis() {
			merged[id] = record
		}
	}
	return merged
}
