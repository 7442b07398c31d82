package greengrass

// Deployment is a create-deployment request in AWS CLI input JSON form. It
// carries only the fields a new deployment accepts; everything the service
// generates (ids, status, timestamps, revision, tags) has no field here.
type Deployment struct {
	TargetArn           string                   `json:"targetArn"`
	DeploymentName      string                   `json:"deploymentName,omitempty"`
	Components          map[string]ComponentSpec `json:"components"`
	DeploymentPolicies  *DeploymentPolicies      `json:"deploymentPolicies,omitempty"`
	IotJobConfiguration *IotJobConfiguration     `json:"iotJobConfiguration,omitempty"`
	ParentTargetArn     string                   `json:"parentTargetArn,omitempty"`
}

// ComponentSpec selects a component version and its configuration.
type ComponentSpec struct {
	ComponentVersion    string               `json:"componentVersion"`
	ConfigurationUpdate *ConfigurationUpdate `json:"configurationUpdate,omitempty"`
	RunWith             *RunWith             `json:"runWith,omitempty"`
}

// ConfigurationUpdate resets and then merges component configuration.
type ConfigurationUpdate struct {
	Merge string   `json:"merge,omitempty"`
	Reset []string `json:"reset,omitempty"`
}

// RunWith sets the system user and resource limits of a component.
type RunWith struct {
	PosixUser            string                `json:"posixUser,omitempty"`
	WindowsUser          string                `json:"windowsUser,omitempty"`
	SystemResourceLimits *SystemResourceLimits `json:"systemResourceLimits,omitempty"`
}

type SystemResourceLimits struct {
	Cpus   *float64 `json:"cpus,omitempty"`
	Memory *int64   `json:"memory,omitempty"`
}

type DeploymentPolicies struct {
	FailureHandlingPolicy         string                         `json:"failureHandlingPolicy,omitempty"`
	ComponentUpdatePolicy         *ComponentUpdatePolicy         `json:"componentUpdatePolicy,omitempty"`
	ConfigurationValidationPolicy *ConfigurationValidationPolicy `json:"configurationValidationPolicy,omitempty"`
}

type ComponentUpdatePolicy struct {
	TimeoutInSeconds *int32 `json:"timeoutInSeconds,omitempty"`
	Action           string `json:"action,omitempty"`
}

type ConfigurationValidationPolicy struct {
	TimeoutInSeconds *int32 `json:"timeoutInSeconds,omitempty"`
}

// IotJobConfiguration controls the IoT job that rolls the deployment out.
type IotJobConfiguration struct {
	JobExecutionsRolloutConfig *RolloutConfig `json:"jobExecutionsRolloutConfig,omitempty"`
	AbortConfig                *AbortConfig   `json:"abortConfig,omitempty"`
	TimeoutConfig              *TimeoutConfig `json:"timeoutConfig,omitempty"`
}

type RolloutConfig struct {
	ExponentialRate  *ExponentialRate `json:"exponentialRate,omitempty"`
	MaximumPerMinute *int32           `json:"maximumPerMinute,omitempty"`
}

type ExponentialRate struct {
	BaseRatePerMinute    *int32                `json:"baseRatePerMinute,omitempty"`
	IncrementFactor      *float64              `json:"incrementFactor,omitempty"`
	RateIncreaseCriteria *RateIncreaseCriteria `json:"rateIncreaseCriteria,omitempty"`
}

type RateIncreaseCriteria struct {
	NumberOfNotifiedThings  *int32 `json:"numberOfNotifiedThings,omitempty"`
	NumberOfSucceededThings *int32 `json:"numberOfSucceededThings,omitempty"`
}

type AbortConfig struct {
	CriteriaList []AbortCriteria `json:"criteriaList"`
}

type AbortCriteria struct {
	FailureType               string   `json:"failureType"`
	Action                    string   `json:"action"`
	ThresholdPercentage       *float64 `json:"thresholdPercentage,omitempty"`
	MinNumberOfExecutedThings *int32   `json:"minNumberOfExecutedThings,omitempty"`
}

type TimeoutConfig struct {
	InProgressTimeoutInMinutes *int64 `json:"inProgressTimeoutInMinutes,omitempty"`
}
