// Package deployment describes the supported PEDL topologies and drives a
// deployment or deletion through CloudFormation.
//
// A Deployment knows which template it uses, which parameters that template
// takes and how to turn the stack outputs into connection instructions. The
// Deployer sequences the remote calls and reports progress.
package deployment

import (
	"errors"
	"fmt"
	"strings"
)

// Type names a deployment topology.
type Type string

// Supported topologies.
const (
	// TypeSimple runs the master in the default VPC with a public address.
	TypeSimple Type = "simple"
	// TypeSecure puts a bastion in front of the master.
	TypeSecure Type = "secure"
	// TypeVPC runs the master and agents in a private subnet of a dedicated
	// VPC, reachable through a bastion in the public subnet.
	TypeVPC Type = "vpc"
)

var (
	// ErrUnknownType is returned for an unsupported deployment type.
	ErrUnknownType = errors.New("unknown deployment type")
	// ErrMissingOutput is returned when a stack lacks an expected output.
	ErrMissingOutput = errors.New("missing stack output")
	// ErrMissingNetwork is returned when a topology needs network stack
	// outputs that were not provided.
	ErrMissingNetwork = errors.New("network stack outputs not available")
	// ErrMissingBastionAMI is returned by topologies that run a bastion host.
	ErrMissingBastionAMI = errors.New("bastion AMI is required")
)

// Types returns every supported type in display order.
func Types() []Type {
	return []Type{TypeSimple, TypeSecure, TypeVPC}
}

// ParseType validates s as a deployment type. Matching is case-insensitive.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownType, s)
}

// Params are the inputs of one deployment.
type Params struct {
	// User is the caller's short name; it scopes stack and resource names.
	User             string
	StackName        string
	NetworkStackName string
	EnvironmentName  string

	Keypair            string
	MasterAMI          string
	AgentAMI           string
	BastionAMI         string
	MasterInstanceType string
	AgentInstanceType  string

	// IdentityFile replaces the key placeholders in the instructions.
	IdentityFile string

	// Network is filled from the network stack outputs before the main
	// stack is deployed.
	Network *Network
}

// Network holds the outputs of the network stack.
type Network struct {
	VPC           string
	PublicSubnet  string
	PrivateSubnet string
}
