package catalog

// mediaSet is an insertion-ordered set of non-empty URLs.
type mediaSet struct {
	seen  map[string]struct{}
	items []string
}

func newMediaSet(urls ...string) *mediaSet {
	s := &mediaSet{seen: make(map[string]struct{})}
	s.add(urls...)
	return s
}

func (s *mediaSet) add(urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if _, ok := s.seen[url]; ok {
			continue
		}
		s.seen[url] = struct{}{}
		s.items = append(s.items, url)
	}
}

func (s *mediaSet) first() string {
	if len(s.items) == 0 {
		return ""
	}
	return s.items[0]
}

func (s *mediaSet) list() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
