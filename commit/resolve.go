package commit

// Resolve reduces commits to the highest precedence bump among them. An
// empty list resolves to BumpNone.
func Resolve(commits AnalyzedCommits) Bump {
	res := BumpNone
	for _, ac := range commits {
		if b := ac.ReleaseBump(); b > res {
			res = b
		}
	}
	return res
}

// Always returns fallback when b is BumpNone. It is the explicit form of
// the "every release moves the version" policy some callers want.
func Always(b, fallback Bump) Bump {
	if b == BumpNone || !b.Valid() {
		return fallback
	}
	return b
}
