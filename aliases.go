package elastomer

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sort"

	"github.com/tidwall/gjson"
)

//The kind of change an AliasAction makes.
type AliasActionType string

const (
	AddAlias    AliasActionType = "add"
	RemoveAlias AliasActionType = "remove"
)

//One add or remove instruction for the aliases API.
type AliasAction struct {
	ActionType AliasActionType
	IndexName  string
	AliasName  string
}

func (a AliasAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[AliasActionType]map[string]string{
		a.ActionType: {
			"index": a.IndexName,
			"alias": a.AliasName,
		},
	})
}

//Holds information about an alias and the index it points to.
type Alias struct {
	Name          string
	IndexName     string
	Filter        string
	RoutingIndex  string
	RoutingSearch string
}

// wrapActions turns a single action into a one element list so the request
// body is always `{"actions": [...]}`.
func wrapActions(actions interface{}) []interface{} {
	if actions == nil {
		return []interface{}{}
	}

	value := reflect.ValueOf(actions)
	if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
		return []interface{}{actions}
	}

	wrapped := make([]interface{}, 0, value.Len())
	for i := 0; i < value.Len(); i++ {
		wrapped = append(wrapped, value.Index(i).Interface())
	}
	return wrapped
}

//Perform one or more alias actions on the cluster. A single action or a slice of actions can be given, both are sent as `{"actions": [...]}`.
//
//Use case: You want to atomically move an alias from one index to another. Calling `Aliases([]AliasAction{{RemoveAlias, "users-1", "users"}, {AddAlias, "users-2", "users"}}, nil)` swaps it in one request.
func (c *Client) Aliases(actions interface{}, params Params) (map[string]interface{}, error) {
	body := map[string]interface{}{"actions": wrapActions(actions)}
	return c.Post("/_aliases", params, body)
}

//Retrieve the current aliases. An `index` param (or alias name) narrows the response to the given index or indices.
func (c *Client) GetAliases(params Params) (map[string]interface{}, error) {
	return c.Get("{/index}/_aliases", params)
}

//Apply the given alias actions and fail if the cluster does not acknowledge them.
func (c *Client) ModifyAliases(actions []AliasAction) error {
	response, err := c.Aliases(actions, nil)
	if err != nil {
		return err
	}

	if acknowledged, _ := response["acknowledged"].(bool); !acknowledged {
		return &ResponseError{StatusCode: http.StatusOK, Body: "alias update was not acknowledged"}
	}
	return nil
}

func aliasesFromJSON(body []byte) []Alias {
	aliases := []Alias{}

	gjson.ParseBytes(body).ForEach(func(index, indexValue gjson.Result) bool {
		indexValue.Get("aliases").ForEach(func(name, aliasValue gjson.Result) bool {
			alias := Alias{
				Name:          name.String(),
				IndexName:     index.String(),
				RoutingIndex:  aliasValue.Get("index_routing").String(),
				RoutingSearch: aliasValue.Get("search_routing").String(),
			}

			if filter := aliasValue.Get("filter"); filter.Exists() {
				alias.Filter = filter.Raw
			}

			aliases = append(aliases, alias)
			return true
		})
		return true
	})

	sort.Slice(aliases, func(i, j int) bool {
		if aliases[i].Name == aliases[j].Name {
			return aliases[i].IndexName < aliases[j].IndexName
		}
		return aliases[i].Name < aliases[j].Name
	})

	return aliases
}

func (c *Client) listAliases(params Params) ([]Alias, error) {
	agent, err := c.buildRequest(http.MethodGet, "{/index}/_aliases", params)
	if err != nil {
		return nil, err
	}

	body, err := handleErrWithBytes(agent)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Body: string(body)}
	}

	return aliasesFromJSON(body), nil
}

//Get all the aliases defined in the cluster.
//
//Use case: You want to see which indices every alias points to.
func (c *Client) GetAllAliases() ([]Alias, error) {
	return c.listAliases(nil)
}

//Get the aliases of the indices matching the given name or pattern.
func (c *Client) GetAliasesFor(index string) ([]Alias, error) {
	return c.listAliases(Params{"index": index})
}
