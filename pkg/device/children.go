package device

import (
	"context"
	"encoding/json"

	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

type childListParams struct {
	StartIndex int `json:"start_index"`
}

type childListPage struct {
	ChildDeviceList []json.RawMessage `json:"child_device_list"`
	StartIndex      int               `json:"start_index"`
	Sum             int               `json:"sum"`
}

// listChildEntries fetches every page of get_child_device_list. Paging stops
// when sum entries arrived or a page comes back empty.
func listChildEntries(ctx context.Context, conn Conn) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for {
		var page childListPage
		params := childListParams{StartIndex: len(all)}
		if err := callInto(ctx, conn, wire.MethodGetChildDeviceList, params, wire.Routing{}, &page); err != nil {
			return nil, err
		}
		all = append(all, page.ChildDeviceList...)
		if len(page.ChildDeviceList) == 0 || len(all) >= page.Sum {
			return all, nil
		}
	}
}

func childComponentList(ctx context.Context, conn Conn) (json.RawMessage, error) {
	return conn.Call(ctx, wire.MethodGetChildComponents, nil, wire.Routing{})
}
