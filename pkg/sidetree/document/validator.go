/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package document

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// nolint:gochecknoglobals
var (
	asciiRegex = regexp.MustCompile("^[A-Za-z0-9_-]+$")
)

const (
	// KeyPurposeAuthentication defines key purpose as authentication key.
	KeyPurposeAuthentication = "authentication"
	// KeyPurposeAssertionMethod defines key purpose as assertion key.
	KeyPurposeAssertionMethod = "assertionMethod"
	// KeyPurposeKeyAgreement defines key purpose as agreement key.
	KeyPurposeKeyAgreement = "keyAgreement"
	// KeyPurposeCapabilityDelegation defines key purpose as delegation key.
	KeyPurposeCapabilityDelegation = "capabilityDelegation"
	// KeyPurposeCapabilityInvocation defines key purpose as invocation key.
	KeyPurposeCapabilityInvocation = "capabilityInvocation"

	// public keys, services id length
	maxIDLength = 50

	maxServiceTypeLength = 30
)

var allowedPurposes = map[string]bool{
	KeyPurposeAuthentication:       true,
	KeyPurposeAssertionMethod:      true,
	KeyPurposeKeyAgreement:         true,
	KeyPurposeCapabilityDelegation: true,
	KeyPurposeCapabilityInvocation: true,
}

// ValidatePublicKeys validates public keys.
func ValidatePublicKeys(pubKeys []PublicKey) error {
	ids := make(map[string]string)

	for _, pubKey := range pubKeys {
		kid := pubKey.ID()
		if kid == "" {
			return errors.New("public key id is missing")
		}

		if err := ValidateID(kid); err != nil {
			return fmt.Errorf("public key: %s", err.Error())
		}

		if _, ok := ids[kid]; ok {
			return fmt.Errorf("duplicate public key id: %s", kid)
		}

		ids[kid] = kid

		if pubKey.Type() == "" {
			return fmt.Errorf("public key '%s' is missing type", kid)
		}

		if err := validateKeyPurposes(pubKey); err != nil {
			return err
		}

		if err := validateJWK(pubKey); err != nil {
			return err
		}
	}

	return nil
}

func validateJWK(pubKey PublicKey) error {
	key, err := pubKey.PublicKeyJwk()
	if err != nil {
		return err
	}

	if key.IsPrivate() {
		return fmt.Errorf("public key '%s' must not contain private key material", pubKey.ID())
	}

	if err := key.Validate(); err != nil {
		return fmt.Errorf("public key '%s': %w", pubKey.ID(), err)
	}

	return nil
}

func validateKeyPurposes(pubKey PublicKey) error {
	if _, ok := pubKey[PurposesProperty]; !ok {
		return nil
	}

	purposes := pubKey.Purposes()
	if len(purposes) == 0 {
		return fmt.Errorf("key '%s' has empty purposes", pubKey.ID())
	}

	seen := make(map[string]bool)

	for _, p := range purposes {
		if !allowedPurposes[p] {
			return fmt.Errorf("invalid purpose: %s", p)
		}

		if seen[p] {
			return fmt.Errorf("duplicate purpose: %s", p)
		}

		seen[p] = true
	}

	return nil
}

// ValidateID validates id.
func ValidateID(id string) error {
	if len(id) > maxIDLength {
		return fmt.Errorf("id exceeds maximum length: %d", maxIDLength)
	}

	if !asciiRegex.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateServices validates services.
func ValidateServices(services []Service) error {
	ids := make(map[string]bool)

	for _, service := range services {
		if err := validateService(service); err != nil {
			return err
		}

		if ids[service.ID()] {
			return fmt.Errorf("duplicate service id: %s", service.ID())
		}

		ids[service.ID()] = true
	}

	return nil
}

func validateService(service Service) error {
	if err := validateServiceID(service.ID()); err != nil {
		return err
	}

	if err := validateServiceType(service.Type()); err != nil {
		return err
	}

	return validateServiceEndpoint(service.Endpoint())
}

func validateServiceID(id string) error {
	if id == "" {
		return errors.New("service id is missing")
	}

	if err := ValidateID(id); err != nil {
		return fmt.Errorf("service: %s", err.Error())
	}

	return nil
}

func validateServiceType(serviceType string) error {
	if serviceType == "" {
		return errors.New("service type is missing")
	}

	if len(serviceType) > maxServiceTypeLength {
		return fmt.Errorf("service type exceeds maximum length: %d", maxServiceTypeLength)
	}

	return nil
}

func validateServiceEndpoint(serviceEndpoint interface{}) error {
	switch endpoint := serviceEndpoint.(type) {
	case nil:
		return errors.New("service endpoint is missing")
	case string:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return fmt.Errorf("service endpoint is not valid URI: %s", err.Error())
		}
	case map[string]interface{}, []interface{}:
		// structured endpoints are passed through
	default:
		return fmt.Errorf("service endpoint has unsupported type %T", serviceEndpoint)
	}

	return nil
}
