package api

type Member struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	JoinedAt    int64  `json:"joined_at,omitempty"`
}

type Group struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []*Member `json:"members"`
	CreatedAt int64     `json:"created_at"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
	// Members without an id get a generated one.
	Members []*Member `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupId string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMemberRequest struct {
	GroupId string  `json:"group_id"`
	Member  *Member `json:"member"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}
