package azure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/beeux/beectl/pkg/provider"
)

// IsNotFound reports whether err is an ARM 404
func IsNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsForbidden reports whether err is an ARM 403
func IsForbidden(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusForbidden
	}
	return false
}

// permissionErr maps ARM 403s onto the provider sentinel so callers
// can errors.Is on it without knowing about azcore.
func permissionErr(err error) error {
	if IsForbidden(err) {
		return fmt.Errorf("%w: %v", provider.ErrPermissionDenied, err)
	}
	return err
}
