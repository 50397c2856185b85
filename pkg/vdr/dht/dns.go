/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dht

import (
	"strconv"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/trustbloc/did-core-go/pkg/document"
	"github.com/trustbloc/did-core-go/pkg/encoder"
	"github.com/trustbloc/did-core-go/pkg/jwk"
)

const (
	recordTTL     = 7200
	maxTXTString  = 255
	rootLabel     = "_did."
	recordVersion = "0"
)

// Key type indexes of verification method records.
const (
	KeyTypeEd25519   = 0
	KeyTypeSecp256k1 = 1
	KeyTypeP256      = 2
	KeyTypeX25519    = 3
)

var curveByKeyType = map[int]string{
	KeyTypeEd25519:   jwk.CurveEd25519,
	KeyTypeSecp256k1: jwk.CurveSecp256k1,
	KeyTypeP256:      jwk.CurveP256,
	KeyTypeX25519:    jwk.CurveX25519,
}

var keyTypeByCurve = map[string]int{
	jwk.CurveEd25519:   KeyTypeEd25519,
	jwk.CurveSecp256k1: KeyTypeSecp256k1,
	jwk.CurveP256:      KeyTypeP256,
	jwk.CurveX25519:    KeyTypeX25519,
}

var purposeKeys = []struct {
	key     string
	purpose document.Purpose
}{
	{"auth", document.Authentication},
	{"asm", document.AssertionMethod},
	{"agm", document.KeyAgreement},
	{"inv", document.CapabilityInvocation},
	{"del", document.CapabilityDelegation},
}

// ErrInvalidPacket is returned when a DNS packet does not describe a DID document.
var ErrInvalidPacket = errors.New("invalid did:dht DNS packet")

// EncodeDocument encodes the document as a DNS packet of TXT records: a root record _did.<id>. listing the
// verification methods, relationships and services, one _k<n>._did. record per verification method and
// one _s<n>._did. record per service.
func EncodeDocument(id string, doc *document.Document) ([]byte, error) {
	msg := &dns.Msg{MsgHdr: dns.MsgHdr{Response: true, Authoritative: true}}

	vmNames := make(map[string]string, len(doc.VerificationMethod))
	root := []string{"v=" + recordVersion}

	var names []string

	for i, vm := range doc.VerificationMethod {
		name := "k" + strconv.Itoa(i)
		vmNames[vm.ID] = name
		names = append(names, name)

		record, err := keyRecord(vm)
		if err != nil {
			return nil, err
		}

		msg.Answer = append(msg.Answer, txt("_"+name+"."+rootLabel, record))
	}

	if len(names) > 0 {
		root = append(root, "vm="+strings.Join(names, ","))
	}

	for _, pk := range purposeKeys {
		var refs []string

		for _, ref := range doc.References(pk.purpose) {
			vm, ok := doc.FindVerificationMethod(ref)
			if !ok {
				return nil, errors.Wrapf(document.ErrVerificationMethodNotFound, "%s reference %s", pk.purpose, ref)
			}

			refs = append(refs, vmNames[vm.ID])
		}

		if len(refs) > 0 {
			root = append(root, pk.key+"="+strings.Join(refs, ","))
		}
	}

	names = nil

	for i, s := range doc.Service {
		name := "s" + strconv.Itoa(i)
		names = append(names, name)

		record := "id=" + fragment(s.ID) + ";t=" + s.Type + ";se=" + strings.Join(s.ServiceEndpoint, ",")
		msg.Answer = append(msg.Answer, txt("_"+name+"."+rootLabel, record))
	}

	if len(names) > 0 {
		root = append(root, "svc="+strings.Join(names, ","))
	}

	msg.Answer = append([]dns.RR{txt(rootLabel+id+".", strings.Join(root, ";"))}, msg.Answer...)

	packet, err := msg.Pack()
	if err != nil {
		return nil, errors.Wrap(err, "pack DNS packet")
	}

	return packet, nil
}

// DecodeDocument decodes a DNS packet produced by EncodeDocument into the document of the DID.
func DecodeDocument(uri, id string, packet []byte) (*document.Document, error) {
	var msg dns.Msg

	if err := msg.Unpack(packet); err != nil {
		return nil, errors.Wrap(ErrInvalidPacket, err.Error())
	}

	records := make(map[string]map[string]string)

	for _, rr := range msg.Answer {
		record, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}

		records[strings.ToLower(record.Hdr.Name)] = parseRecord(strings.Join(record.Txt, ""))
	}

	root, ok := records[strings.ToLower(rootLabel+id+".")]
	if !ok {
		return nil, errors.Wrap(ErrInvalidPacket, "missing root record")
	}

	if root["v"] != recordVersion {
		return nil, errors.Wrapf(ErrInvalidPacket, "unsupported version '%s'", root["v"])
	}

	vmNames := split(root["vm"])
	purposes := make(map[string][]document.Purpose, len(vmNames))

	for _, name := range vmNames {
		purposes[name] = nil
	}

	for _, pk := range purposeKeys {
		for _, name := range split(root[pk.key]) {
			if _, ok := purposes[name]; !ok {
				return nil, errors.Wrapf(ErrInvalidPacket, "%s references unknown key %s", pk.key, name)
			}

			purposes[name] = append(purposes[name], pk.purpose)
		}
	}

	doc := document.New(uri)

	for _, name := range vmNames {
		vm, err := decodeKeyRecord(uri, records["_"+name+"."+rootLabel])
		if err != nil {
			return nil, errors.Wrapf(err, "verification method %s", name)
		}

		doc.AddVerificationMethod(*vm, purposes[name]...)
	}

	for _, name := range split(root["svc"]) {
		record, ok := records["_"+name+"."+rootLabel]
		if !ok || record["id"] == "" || record["t"] == "" || record["se"] == "" {
			return nil, errors.Wrapf(ErrInvalidPacket, "service %s", name)
		}

		doc.AddService(document.Service{
			ID:              uri + "#" + record["id"],
			Type:            record["t"],
			ServiceEndpoint: split(record["se"]),
		})
	}

	return doc, nil
}

func keyRecord(vm document.VerificationMethod) (string, error) {
	if vm.PublicKeyJwk == nil {
		return "", errors.Wrap(document.ErrPublicKeyMissing, vm.ID)
	}

	keyType, ok := keyTypeByCurve[vm.PublicKeyJwk.Crv]
	if !ok {
		return "", errors.Wrapf(jwk.ErrUnsupportedKey, "curve '%s'", vm.PublicKeyJwk.Crv)
	}

	raw, err := vm.PublicKeyJwk.RawPublicKey()
	if err != nil {
		return "", err
	}

	return "id=" + fragment(vm.ID) + ";t=" + strconv.Itoa(keyType) + ";k=" + encoder.EncodeToString(raw), nil
}

func decodeKeyRecord(uri string, record map[string]string) (*document.VerificationMethod, error) {
	if record == nil || record["id"] == "" {
		return nil, errors.Wrap(ErrInvalidPacket, "missing key record")
	}

	keyType, err := strconv.Atoi(record["t"])
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPacket, "key type '%s'", record["t"])
	}

	crv, ok := curveByKeyType[keyType]
	if !ok {
		return nil, errors.Wrapf(jwk.ErrUnsupportedKey, "key type %d", keyType)
	}

	raw, err := encoder.DecodeString(record["k"])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPacket, err.Error())
	}

	pub, err := jwk.FromRawPublicKey(crv, raw)
	if err != nil {
		return nil, err
	}

	return &document.VerificationMethod{
		ID:           uri + "#" + record["id"],
		Type:         document.JSONWebKey,
		Controller:   uri,
		PublicKeyJwk: pub,
	}, nil
}

// txt builds a TXT record, splitting the value into strings of at most 255 bytes.
func txt(name, value string) *dns.TXT {
	var chunks []string

	for len(value) > maxTXTString {
		chunks = append(chunks, value[:maxTXTString])
		value = value[maxTXTString:]
	}

	chunks = append(chunks, value)

	return &dns.TXT{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: recordTTL},
		Txt: chunks,
	}
}

func parseRecord(value string) map[string]string {
	record := make(map[string]string)

	for _, pair := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(pair, "=")
		if ok {
			record[k] = v
		}
	}

	return record
}

func split(value string) []string {
	if value == "" {
		return nil
	}

	return strings.Split(value, ",")
}

func fragment(id string) string {
	if i := strings.LastIndex(id, "#"); i >= 0 {
		return id[i+1:]
	}

	return id
}
