package gate

import "strings"

// RouteClass partitions paths for edge routing.
type RouteClass int

const (
	// ClassProtected requires an authenticated session. Paths not listed
	// anywhere default here: fail closed.
	ClassProtected RouteClass = iota

	// ClassAuth is sign-in/sign-up; authenticated users are redirected
	// away from these.
	ClassAuth

	// ClassPublic renders for everyone.
	ClassPublic

	// ClassAsset covers static assets; never gated.
	ClassAsset

	// ClassAPI covers API endpoints; gated by their own handlers, not by
	// navigation routing.
	ClassAPI
)

// String returns the lowercase name of the class.
func (c RouteClass) String() string {
	switch c {
	case ClassProtected:
		return "protected"
	case ClassAuth:
		return "auth"
	case ClassPublic:
		return "public"
	case ClassAsset:
		return "asset"
	case ClassAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Classifier is a static partition of paths, built once and consulted per
// request.
type Classifier struct {
	auth          map[string]bool
	public        map[string]bool
	apiPrefix     string
	assetPrefixes []string
}

// ClassifierOption configures the Classifier.
type ClassifierOption func(*Classifier)

// WithAuthPaths replaces the sign-in/sign-up path set.
func WithAuthPaths(paths ...string) ClassifierOption {
	return func(c *Classifier) {
		c.auth = make(map[string]bool, len(paths))
		for _, p := range paths {
			c.auth[p] = true
		}
	}
}

// WithPublicPaths replaces the public path set.
func WithPublicPaths(paths ...string) ClassifierOption {
	return func(c *Classifier) {
		c.public = make(map[string]bool, len(paths))
		for _, p := range paths {
			c.public[p] = true
		}
	}
}

// WithAssetPrefixes replaces the asset prefix list.
func WithAssetPrefixes(prefixes ...string) ClassifierOption {
	return func(c *Classifier) { c.assetPrefixes = prefixes }
}

// NewClassifier builds a classifier with conventional defaults: /login and
// /signup are auth paths, / is public, /api/ is API, and /static/,
// /assets/ and dotted filenames are assets.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		auth:          map[string]bool{"/login": true, "/signup": true},
		public:        map[string]bool{"/": true},
		apiPrefix:     "/api/",
		assetPrefixes: []string{"/static/", "/assets/"},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify partitions the path. Anything not explicitly public or auth and
// not matching asset/API conventions is protected.
func (c *Classifier) Classify(path string) RouteClass {
	if path == "" {
		return ClassProtected
	}
	if c.auth[path] {
		return ClassAuth
	}
	if c.public[path] {
		return ClassPublic
	}
	if strings.HasPrefix(path, c.apiPrefix) {
		return ClassAPI
	}
	for _, p := range c.assetPrefixes {
		if strings.HasPrefix(path, p) {
			return ClassAsset
		}
	}
	// Dotted final segment (favicon.ico, robots.txt) is an asset request.
	if i := strings.LastIndex(path, "/"); i >= 0 && strings.Contains(path[i+1:], ".") {
		return ClassAsset
	}
	return ClassProtected
}
