package config

import "time"

// Defaults applied when neither the config file, the environment nor a flag
// provides a value.
const (
	DefaultDeploymentType     = "simple"
	DefaultKeypair            = "pedl-keypair"
	DefaultMasterInstanceType = "t2.medium"
	DefaultAgentInstanceType  = "p3.2xlarge"
	DefaultBastionAMI         = "ami-06d51e91cea0dac8d"
	DefaultEnvironmentName    = "pedl"

	// DefaultWaitDelay is the fixed delay between stack status polls.
	DefaultWaitDelay = 10 * time.Second
	// DefaultWaitTimeout bounds a single create, update or delete wait.
	DefaultWaitTimeout = 30 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Stack naming. The user segment comes from the caller identity ARN.
const (
	StackNameFormat        = "pedl-%s"
	NetworkStackNameFormat = "pedl-vpc-%s"
)

// CloudFormation parameter keys understood by the bundled templates.
const (
	ParamEnvironmentName    = "EnvironmentName"
	ParamUserName           = "UserName"
	ParamKeypair            = "Keypair"
	ParamMasterAMI          = "MasterAmiId"
	ParamMasterInstanceType = "MasterInstanceType"
	ParamAgentAMI           = "AgentAmiId"
	ParamAgentInstanceType  = "AgentInstanceType"
	ParamBastionAMI         = "BastionAmiId"
	ParamVPC                = "VPC"
	ParamPublicSubnet       = "PublicSubnetId"
	ParamPrivateSubnet      = "PrivateSubnetId"
)

// CloudFormation output keys read back after a deployment.
const (
	OutputMasterID             = "MasterId"
	OutputBastionID            = "BastionId"
	OutputCheckpointBucket     = "CheckpointBucket"
	OutputAgentInstanceProfile = "AgentInstanceProfile"
	OutputAgentSecurityGroupID = "AgentSecurityGroupId"
	OutputVPC                  = "VPC"
	OutputPublicSubnet         = "PublicSubnetId"
	OutputPrivateSubnet        = "PrivateSubnetId"
)

// Template file names bundled with the binary.
const (
	TemplateSimple  = "simple.yaml"
	TemplateSecure  = "secure.yaml"
	TemplateVPC     = "vpc.yaml"
	TemplateNetwork = "pedl-vpc.yaml"
)

// Stack tags applied to every stack this tool creates.
const (
	TagUser           = "pedl:user"
	TagDeploymentType = "pedl:deployment-type"
)

// MasterConfigPath is where the master reads its provisioner config.
const MasterConfigPath = "/usr/local/pedl/etc/master.yaml"

// MasterUIPort is the port the master serves its web UI on.
const MasterUIPort = 8080
