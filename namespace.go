package veldt

import (
	"regexp"

	"github.com/rotisserie/eris"
)

var namespaceRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Namespace is a unique identifier for an engine instance. It is tagged on
// metrics and logs so concurrent instances can be told apart.
type Namespace string

func (n Namespace) String() string {
	return string(n)
}

func (n Namespace) Validate() error {
	if n == "" {
		return eris.New("namespace must not be empty")
	}
	if !namespaceRegexp.MatchString(string(n)) {
		return eris.Errorf("namespace %q may only contain alphanumerics, dashes, and underscores", n)
	}
	return nil
}
