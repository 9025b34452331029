package whitepages

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"numlookup/internal/lookup/providers"
	"numlookup/internal/lookup/providers/contract"
)

func TestWhitepagesPlaceholder(t *testing.T) {
	(&contract.NotConfiguredTest{Provider: New("")}).Run(t)

	suite := &contract.ContractSuite{
		ProviderName: Name,
		Tests: []contract.ContractTest{{
			Name:         "configured placeholder is unavailable",
			Provider:     New("key"),
			Input:        "+14155552671",
			WantCategory: providers.ErrorNotImplemented,
		}},
	}
	suite.Run(t)

	assert.NoError(t, New("key").Health(t.Context()))
}
