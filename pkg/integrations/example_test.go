package integrations_test

import (
	"fmt"

	"github.com/matzehuels/pixelforge/pkg/integrations"
)

func ExampleStatusError() {
	err := &integrations.StatusError{StatusCode: 422, Body: "prompt rejected"}
	fmt.Println(err)
	// Output:
	// unexpected status 422: prompt rejected
}

func Example_errors() {
	// Standard errors for service calls
	fmt.Println("ErrNotFound:", integrations.ErrNotFound)
	fmt.Println("ErrNetwork:", integrations.ErrNetwork)
	// Output:
	// ErrNotFound: resource not found
	// ErrNetwork: network error
}
