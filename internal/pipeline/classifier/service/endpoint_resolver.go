package service

import (
	"net/netip"
	"strings"

	"github.com/jchatter/aws-solution-bundle/internal/pipeline/classifier/model"
	txnModel "github.com/jchatter/aws-solution-bundle/internal/transaction/model"
)

const cloudDomain = "amazonaws.com"

// Roles is the verdict of the endpoint role resolver for one transaction.
type Roles struct {
	Rule      string
	Direction model.Direction
	Endpoints model.Endpoints
	BytesIn   *int64
	BytesOut  *int64
	Resource  string
}

type roleRule struct {
	name    string
	matches func(txn txnModel.Transaction) bool
	build   func(txn txnModel.Transaction) Roles
}

// EndpointResolver decides which side of a transaction is the monitored cloud resource.
// Rules are evaluated top to bottom and the first match wins.
type EndpointResolver struct {
	httpRules []roleRule
	tlsRules  []roleRule
}

func NewEndpointResolver() *EndpointResolver {
	return &EndpointResolver{
		httpRules: []roleRule{
			{name: "http-outbound", matches: isGatewayOriginatedResponse, build: outboundFromOrigin},
			{name: "http-inbound", matches: isInstanceRequestToPublicServer, build: inboundToPublicServer},
			{name: "http-internal", matches: always, build: internalHTTP},
		},
		tlsRules: []roleRule{
			{name: "tls-external-client", matches: hasExternalClientName, build: outboundToExternalClient},
			{name: "tls-external-server", matches: hasExternalServerName, build: inboundFromExternalServer},
			{name: "tls-internal", matches: always, build: internalTLS},
		},
	}
}

func (r *EndpointResolver) Resolve(txn txnModel.Transaction) Roles {
	rules := r.httpRules
	if txn.Protocol == txnModel.TLSProtocol {
		rules = r.tlsRules
	}
	for _, rule := range rules {
		if rule.matches(txn) {
			roles := rule.build(txn)
			roles.Rule = rule.name
			return roles
		}
	}
	// unreachable, both rule lists end with a catch-all
	return internalHTTP(txn)
}

func IsPrivate(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast()
}

func ReferencesCloudStorage(s string) bool {
	return strings.Contains(s, cloudDomain)
}

func firstName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func always(txnModel.Transaction) bool { return true }

func isGatewayOriginatedResponse(txn txnModel.Transaction) bool {
	return txn.MonitoredSide == txnModel.ClientSide && txn.Origin != ""
}

func isInstanceRequestToPublicServer(txn txnModel.Transaction) bool {
	return txn.MonitoredSide == txnModel.ServerSide &&
		!ReferencesCloudStorage(txn.URI) &&
		txn.ServerAddr.IsValid() &&
		!IsPrivate(txn.ServerAddr)
}

func isExternalName(addr netip.Addr, name string) bool {
	return name != "" && !IsPrivate(addr) && !ReferencesCloudStorage(name)
}

func hasExternalClientName(txn txnModel.Transaction) bool {
	return isExternalName(txn.ClientAddr, firstName(txn.ClientHostnames))
}

func hasExternalServerName(txn txnModel.Transaction) bool {
	return isExternalName(txn.ServerAddr, firstName(txn.ServerHostnames))
}

func outboundFromOrigin(txn txnModel.Transaction) Roles {
	return Roles{
		Direction: model.OutboundFromCloud,
		Endpoints: model.Endpoints{Internal: addrString(txn.ServerAddr), External: txn.Origin},
		BytesOut:  txn.RspBytes,
		BytesIn:   txn.ReqBytes,
		Resource:  txn.URI,
	}
}

func inboundToPublicServer(txn txnModel.Transaction) Roles {
	return Roles{
		Direction: model.InboundToCloud,
		Endpoints: model.Endpoints{Internal: addrString(txn.ClientAddr), External: addrString(txn.ServerAddr)},
		BytesIn:   txn.RspBytes,
		BytesOut:  txn.ReqBytes,
		Resource:  "External URI: " + txn.URI,
	}
}

func internalHTTP(txn txnModel.Transaction) Roles {
	return Roles{
		Direction: model.InternalOnly,
		Endpoints: model.Endpoints{Server: addrString(txn.ServerAddr), Client: addrString(txn.ClientAddr)},
		Resource:  txn.URI,
	}
}

func outboundToExternalClient(txn txnModel.Transaction) Roles {
	return Roles{
		Direction: model.OutboundFromCloud,
		Endpoints: model.Endpoints{Internal: addrString(txn.ServerAddr), External: addrString(txn.ClientAddr)},
		BytesIn:   txn.ReqBytes,
		BytesOut:  txn.RspBytes,
		Resource:  "External SSL: " + firstName(txn.ClientHostnames),
	}
}

func inboundFromExternalServer(txn txnModel.Transaction) Roles {
	return Roles{
		Direction: model.InboundToCloud,
		Endpoints: model.Endpoints{Internal: addrString(txn.ClientAddr), External: addrString(txn.ServerAddr)},
		BytesOut:  txn.ReqBytes,
		BytesIn:   txn.RspBytes,
		Resource:  "SSL host: " + firstName(txn.ServerHostnames),
	}
}

func internalTLS(txn txnModel.Transaction) Roles {
	return Roles{
		Direction: model.InternalOnly,
		Endpoints: model.Endpoints{Server: addrString(txn.ServerAddr), Client: addrString(txn.ClientAddr)},
	}
}

func addrString(addr netip.Addr) string {
	if !addr.IsValid() {
		return ""
	}
	return addr.String()
}
