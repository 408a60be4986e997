package deployment

import (
	"context"
	"fmt"

	"github.com/determined-ai/pedl-deploy/internal/config"
	"github.com/determined-ai/pedl-deploy/internal/platform/ec2"
)

// InstanceLookup resolves instance addresses.
type InstanceLookup interface {
	Instance(ctx context.Context, id string) (*ec2.Instance, error)
}

// Deployment is one topology.
type Deployment interface {
	Type() Type
	// Template is the bundled template name of the main stack.
	Template() string
	// NeedsNetwork reports whether the network stack must exist first.
	NeedsNetwork() bool
	// Parameters returns the CloudFormation parameters of the main stack.
	Parameters(p Params) (map[string]string, error)
	// Instructions explains how to reach the deployed master.
	Instructions(ctx context.Context, outputs map[string]string, instances InstanceLookup, identityFile string) (*Instructions, error)
}

// New returns the Deployment for t.
func New(t Type) (Deployment, error) {
	switch t {
	case TypeSimple:
		return simple{}, nil
	case TypeSecure:
		return secure{}, nil
	case TypeVPC:
		return vpc{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, t)
	}
}

func baseParameters(p Params) map[string]string {
	env := p.EnvironmentName
	if env == "" {
		env = config.DefaultEnvironmentName
	}
	return map[string]string{
		config.ParamEnvironmentName:    env,
		config.ParamUserName:           p.User,
		config.ParamKeypair:            p.Keypair,
		config.ParamMasterAMI:          p.MasterAMI,
		config.ParamMasterInstanceType: p.MasterInstanceType,
		config.ParamAgentAMI:           p.AgentAMI,
		config.ParamAgentInstanceType:  p.AgentInstanceType,
	}
}

// simple exposes the master directly.
type simple struct{}

func (simple) Type() Type         { return TypeSimple }
func (simple) Template() string   { return config.TemplateSimple }
func (simple) NeedsNetwork() bool { return false }

func (simple) Parameters(p Params) (map[string]string, error) {
	return baseParameters(p), nil
}

func (simple) Instructions(ctx context.Context, outputs map[string]string, instances InstanceLookup, identityFile string) (*Instructions, error) {
	master, err := lookup(ctx, outputs, config.OutputMasterID, instances)
	if err != nil {
		return nil, err
	}
	ip := master.PublicIP

	instr := &Instructions{Sections: []Section{{Steps: []Step{
		{Label: "View the PEDL UI", Command: fmt.Sprintf("http://%s:%d", ip, config.MasterUIPort)},
		{Label: "SSH to master Instance", Command: fmt.Sprintf("ssh -i %s ubuntu@%s", PemFilePlaceholder, ip)},
	}}}}
	return instr.WithIdentityFile(identityFile), nil
}

// secure reaches the master through a bastion.
type secure struct{}

func (secure) Type() Type         { return TypeSecure }
func (secure) Template() string   { return config.TemplateSecure }
func (secure) NeedsNetwork() bool { return false }

func (secure) Parameters(p Params) (map[string]string, error) {
	if p.BastionAMI == "" {
		return nil, ErrMissingBastionAMI
	}
	params := baseParameters(p)
	params[config.ParamBastionAMI] = p.BastionAMI
	return params, nil
}

func (secure) Instructions(ctx context.Context, outputs map[string]string, instances InstanceLookup, identityFile string) (*Instructions, error) {
	bastion, err := lookup(ctx, outputs, config.OutputBastionID, instances)
	if err != nil {
		return nil, err
	}
	master, err := lookup(ctx, outputs, config.OutputMasterID, instances)
	if err != nil {
		return nil, err
	}
	instr := bastionInstructions(master.PrivateIP, bastion.PublicIP)
	return instr.WithIdentityFile(identityFile), nil
}

func bastionInstructions(masterIP, bastionIP string) *Instructions {
	port := config.MasterUIPort
	return &Instructions{Sections: []Section{
		{
			Title: "To View PEDL UI",
			Steps: []Step{
				{Label: "Add Keypair", Command: "ssh-add " + KeypairPlaceholder},
				{Label: "Open SSH Tunnel through Bastion", Command: fmt.Sprintf("ssh -N -L %d:%s:%d ubuntu@%s", port, masterIP, port, bastionIP)},
				{Label: "View the PEDL UI", Command: fmt.Sprintf("http://localhost:%d", port)},
			},
		},
		{
			Steps: []Step{
				{Label: "SSH to PEDL Master", Command: fmt.Sprintf(
					`ssh -i %s ubuntu@%s -o "proxycommand ssh -W %%h:%%p -i %s ubuntu@%s"`,
					KeypairPlaceholder, masterIP, KeypairPlaceholder, bastionIP)},
			},
		},
	}}
}

// vpc is secure inside a dedicated network stack.
type vpc struct{}

func (vpc) Type() Type         { return TypeVPC }
func (vpc) Template() string   { return config.TemplateVPC }
func (vpc) NeedsNetwork() bool { return true }

func (vpc) Parameters(p Params) (map[string]string, error) {
	if p.Network == nil {
		return nil, ErrMissingNetwork
	}
	params, err := secure{}.Parameters(p)
	if err != nil {
		return nil, err
	}
	params[config.ParamVPC] = p.Network.VPC
	params[config.ParamPublicSubnet] = p.Network.PublicSubnet
	params[config.ParamPrivateSubnet] = p.Network.PrivateSubnet
	return params, nil
}

func (vpc) Instructions(ctx context.Context, outputs map[string]string, instances InstanceLookup, identityFile string) (*Instructions, error) {
	instr, err := secure{}.Instructions(ctx, outputs, instances, identityFile)
	if err != nil {
		return nil, err
	}
	if id := outputs[config.OutputVPC]; id != "" {
		instr.Sections = append(instr.Sections, Section{Steps: []Step{{Label: "PEDL VPC", Command: id}}})
	}
	return instr, nil
}

// NetworkParameters returns the parameters of the network stack.
func NetworkParameters(p Params) map[string]string {
	env := p.EnvironmentName
	if env == "" {
		env = config.DefaultEnvironmentName
	}
	return map[string]string{
		config.ParamEnvironmentName: env,
		config.ParamUserName:        p.User,
	}
}

// NetworkFromOutputs reads the network stack outputs.
func NetworkFromOutputs(outputs map[string]string) (*Network, error) {
	n := &Network{
		VPC:           outputs[config.OutputVPC],
		PublicSubnet:  outputs[config.OutputPublicSubnet],
		PrivateSubnet: outputs[config.OutputPrivateSubnet],
	}
	for _, key := range []string{config.OutputVPC, config.OutputPublicSubnet, config.OutputPrivateSubnet} {
		if outputs[key] == "" {
			return nil, fmt.Errorf("%w %s", ErrMissingOutput, key)
		}
	}
	return n, nil
}

func lookup(ctx context.Context, outputs map[string]string, key string, instances InstanceLookup) (*ec2.Instance, error) {
	id := outputs[key]
	if id == "" {
		return nil, fmt.Errorf("%w %s", ErrMissingOutput, key)
	}
	inst, err := instances.Instance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s %s: %w", key, id, err)
	}
	return inst, nil
}
