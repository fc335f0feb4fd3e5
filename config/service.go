package config

import "sync"

// Service computes the validated configuration for each prefix once and serves it for the
// rest of the run. It is created by the suite's setup and passed to whatever needs
// configuration; there is no package-level cache.
type Service struct {
	loader    *Loader
	overrides map[string]interface{}
	sections  map[string]sectionResult
	lock      sync.Mutex
}

type sectionResult struct {
	section Section
	err     error
}

// NewService creates a Service. overrides are applied on top of the files for every prefix
// and are usually the result of ParseOverrides(os.Args).
func NewService(loader *Loader, overrides map[string]interface{}) *Service {
	if loader == nil {
		loader = NewLoader(nil, nil)
	}
	return &Service{
		loader:    loader,
		overrides: overrides,
		sections:  make(map[string]sectionResult),
	}
}

// Section returns the validated configuration for prefix, loading it from searchPaths on the
// first call. Later calls for the same prefix return the first result, error included, and
// ignore their other arguments.
func (s *Service) Section(prefix string, searchPaths []string, schemaIDs []string) (Section, error) {
	if prefix == "" {
		return nil, &UnimplementedExtensionError{Point: "ConfigPrefix"}
	}
	if len(searchPaths) == 0 {
		return nil, &UnimplementedExtensionError{Point: "ConfigPaths"}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if r, ok := s.sections[prefix]; ok {
		return r.section, r.err
	}
	var r sectionResult
	normalized, err := s.loader.Load([]string{prefix}, searchPaths, s.overrides, schemaIDs)
	if err != nil {
		r.err = err
	} else {
		r.section = normalized[prefix]
	}
	s.sections[prefix] = r
	return r.section, r.err
}
