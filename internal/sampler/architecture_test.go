package sampler

import (
	"testing"

	"carecensus/testutil"
)

func TestNoInfrastructureImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.AnyOf(testutil.InfraImportForbidden, testutil.DriverImportForbidden),
		"sampler must not reach storage or transport")
}
