package elastomer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/jeremywohl/flatten"
	"github.com/tidwall/gjson"
)

const clusterSettingsPath = "/_cluster/settings"

//Holds information about the health of an Elasticsearch cluster, based on the cluster health API: https://www.elastic.co/guide/en/elasticsearch/reference/current/cluster-health.html
type ClusterHealth struct {
	Cluster                string  `json:"cluster_name"`
	Status                 string  `json:"status"`
	TimedOut               bool    `json:"timed_out"`
	NumberOfNodes          int     `json:"number_of_nodes"`
	ActiveShards           int     `json:"active_shards"`
	RelocatingShards       int     `json:"relocating_shards"`
	InitializingShards     int     `json:"initializing_shards"`
	UnassignedShards       int     `json:"unassigned_shards"`
	ActiveShardsPercentage float64 `json:"active_shards_percent_as_number"`
	Message                string
	RawIndices             map[string]IndexHealth `json:"indices"`
	HealthyIndices         []IndexHealth
	UnhealthyIndices       []IndexHealth
}

//Holds information about the health of an Elasticsearch index, based on the index level of the cluster health API.
type IndexHealth struct {
	Name               string
	Status             string `json:"status"`
	ActiveShards       int    `json:"active_shards"`
	RelocatingShards   int    `json:"relocating_shards"`
	InitializingShards int    `json:"initializing_shards"`
	UnassignedShards   int    `json:"unassigned_shards"`
}

//Holds slices for persistent and transient cluster settings.
type ClusterSettings struct {
	PersistentSettings []Setting
	TransientSettings  []Setting
}

//A setting name and value with the setting name to be a "collapsed" version of the setting. A setting of:
//  { "indices": { "recovery" : { "max_bytes_per_sec": "10mb" } } }
//would be represented by:
//  Setting{ Setting: "indices.recovery.max_bytes_per_sec", Value: "10mb" }
type Setting struct {
	Setting, Value string
}

//Simple status on the health of the cluster. An `index` param narrows the health to the given index or indices.
//
//Use case: You want to wait for an index to become green after creating it. Calling `Health(Params{"index": "users", "wait_for_status": "green", "timeout": "5s"})` blocks server side until the status is reached or the timeout expires.
func (c *Client) Health(params Params) (map[string]interface{}, error) {
	return c.Get("/_cluster/health{/index}", params)
}

//Comprehensive state information of the whole cluster.
func (c *Client) State(params Params) (map[string]interface{}, error) {
	return c.Get("/_cluster/state", params)
}

//Cluster wide settings that have been modified via the update API.
func (c *Client) Settings(params Params) (map[string]interface{}, error) {
	return c.Get(clusterSettingsPath, params)
}

//Update cluster wide specific settings. Settings updated can either be persistent (applied across restarts) or transient (will not survive a full cluster restart).
func (c *Client) UpdateSettings(body interface{}, params Params) (map[string]interface{}, error) {
	return c.Put(clusterSettingsPath, params, body)
}

//Explicitly execute a cluster reroute allocation command.
//
//Use case: A shard has to be moved from one node to another, an allocation has to be cancelled, or an unassigned shard has to be explicitly allocated on a specific node.
func (c *Client) Reroute(body interface{}, params Params) (map[string]interface{}, error) {
	return c.Post("/_cluster/reroute", params, body)
}

//Shutdown the entire cluster.
func (c *Client) Shutdown(params Params) (map[string]interface{}, error) {
	return c.Post("/_shutdown", params, nil)
}

//Get the health of the cluster with a per index breakdown.
//
//Use case: You want to see information needed to determine if the Elasticsearch cluster is healthy (green) or not (yellow/red).
func (c *Client) GetHealth() (ClusterHealth, error) {
	var health ClusterHealth

	agent, err := c.buildRequest(http.MethodGet, "/_cluster/health", Params{"level": "indices"})
	if err != nil {
		return ClusterHealth{}, err
	}

	err = handleErrWithStruct(agent, &health)
	if err != nil {
		return ClusterHealth{}, err
	}

	names := make([]string, 0, len(health.RawIndices))
	for indexName := range health.RawIndices {
		names = append(names, indexName)
	}
	sort.Strings(names)

	for _, indexName := range names {
		index := health.RawIndices[indexName]
		index.Name = indexName

		if index.Status == "green" {
			health.HealthyIndices = append(health.HealthyIndices, index)
		} else {
			health.UnhealthyIndices = append(health.UnhealthyIndices, index)
		}
	}

	health.Message = captionHealth(health)

	return health, nil
}

func settingsToStructs(rawJSON string) ([]Setting, error) {
	if rawJSON == "" {
		return nil, nil
	}

	flatSettings, err := flatten.FlattenString(rawJSON, "", flatten.DotStyle)
	if err != nil {
		return nil, err
	}

	settingsMap, _ := gjson.Parse(flatSettings).Value().(map[string]interface{})
	keys := []string{}

	for k, v := range settingsMap {
		if strValue := fmt.Sprint(v); v != nil && strValue != "" {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	var settings []Setting
	for _, k := range keys {
		setting := Setting{
			Setting: k,
			Value:   fmt.Sprint(settingsMap[k]),
		}

		settings = append(settings, setting)
	}
	return settings, nil
}

//Get all the persistent and transient cluster settings.
//
//Use case: You want to see the current settings in the cluster.
func (c *Client) GetClusterSettings() (ClusterSettings, error) {
	clusterSettings := ClusterSettings{}

	agent, err := c.buildRequest(http.MethodGet, clusterSettingsPath, nil)
	if err != nil {
		return clusterSettings, err
	}

	body, err := handleErrWithBytes(agent)
	if err != nil {
		return clusterSettings, err
	}

	persistentSettings, err := settingsToStructs(gjson.GetBytes(body, "persistent").Raw)
	if err != nil {
		return clusterSettings, err
	}

	transientSettings, err := settingsToStructs(gjson.GetBytes(body, "transient").Raw)
	if err != nil {
		return clusterSettings, err
	}

	clusterSettings.PersistentSettings = persistentSettings
	clusterSettings.TransientSettings = transientSettings

	return clusterSettings, nil
}

// lookupSetting finds a dotted setting name in a settings object, whether the
// server returned it flat or nested.
func lookupSetting(body []byte, section, setting string) *string {
	flat, err := flatten.FlattenString(gjson.GetBytes(body, section).Raw, "", flatten.DotStyle)
	if err != nil {
		return nil
	}

	value := gjson.Get(flat, escapeSettingName(setting))
	if !value.Exists() || value.Type == gjson.Null {
		return nil
	}

	s := value.String()
	return &s
}

//Set a new value for a transient cluster setting. A nil value removes the setting, resetting it to its default.
//
//Use case: You've doubled the number of nodes in your cluster and you want to increase the number of shards the cluster can relocate at one time. Calling `SetClusterSetting("cluster.routing.allocation.cluster_concurrent_rebalance", &value)` will update that value with the cluster.
func (c *Client) SetClusterSetting(setting string, value *string) (*string, *string, error) {
	getAgent, err := c.buildRequest(http.MethodGet, clusterSettingsPath, nil)
	if err != nil {
		return nil, nil, err
	}

	settingsBody, err := handleErrWithBytes(getAgent)
	if err != nil {
		return nil, nil, err
	}

	existingValue := lookupSetting(settingsBody, "transient", setting)
	if existingValue == nil {
		existingValue = lookupSetting(settingsBody, "persistent", setting)
	}

	var newSetting interface{}
	if value != nil {
		newSetting = *value
	}

	update, err := json.Marshal(map[string]interface{}{
		"transient": map[string]interface{}{setting: newSetting},
	})
	if err != nil {
		return nil, nil, err
	}

	putAgent, err := c.buildRequest(http.MethodPut, clusterSettingsPath, nil)
	if err != nil {
		return nil, nil, err
	}

	putAgent, err = withJSONBody(putAgent, json.RawMessage(update))
	if err != nil {
		return nil, nil, err
	}

	body, err := handleErrWithBytes(putAgent)
	if err != nil {
		return nil, nil, err
	}

	return existingValue, lookupSetting(body, "transient", setting), nil
}

//Enables or disables allocation for the cluster.
//
//Use case: You are performing an operation on the cluster where nodes may be dropping in and out. Calling `SetAllocation("disable")` will disable allocation so Elasticsearch won't move/relocate any shards. Once you complete your task, calling `SetAllocation("enable")` will allow Elasticsearch to relocate shards again.
func (c *Client) SetAllocation(allocation string) (string, error) {
	allocationSetting := "none"
	if allocation == "enable" {
		allocationSetting = "all"
	}

	_, newValue, err := c.SetClusterSetting("cluster.routing.allocation.enable", &allocationSetting)
	if err != nil {
		return "", err
	}

	if newValue == nil {
		return "", nil
	}
	return *newValue, nil
}
