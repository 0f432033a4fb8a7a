package outputters

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/message"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// UserChartHTMLOutputter renders the above-average user bubbles as a
// self-contained HTML page: one pie-sliced circle per user, sized by total
// resource count, with a hoverable role list alongside.
type UserChartHTMLOutputter struct {
	*chain.BaseOutputter
	bubbles    []rbac.UserBubble
	average    float64
	outputFile string
}

func NewUserChartHTMLOutputter(configs ...cfg.Config) chain.Outputter {
	o := &UserChartHTMLOutputter{}
	o.BaseOutputter = chain.NewBaseOutputter(o, configs...)
	return o
}

func (o *UserChartHTMLOutputter) Initialize() error {
	outputDir, err := cfg.As[string](o.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	o.outputFile = filepath.Join(outputDir, rbac.UserChartFile)
	return nil
}

// Output accepts the filtered bubble set and its precomputed average.
func (o *UserChartHTMLOutputter) Output(v any) error {
	switch val := v.(type) {
	case rbac.UserBubble:
		o.bubbles = append(o.bubbles, val)
	case ChartAverage:
		o.average = float64(val)
	}
	return nil
}

func (o *UserChartHTMLOutputter) Complete() error {
	if len(o.bubbles) == 0 {
		message.Warning("No users above average; skipping %s", o.outputFile)
		return nil
	}

	data, err := json.Marshal(o.bubbles)
	if err != nil {
		return fmt.Errorf("failed to marshal user chart data: %w", err)
	}

	page := userChartPage{
		Average: fmt.Sprintf("%.1f", o.average),
		Dataset: template.JS(data),
	}
	if err := renderHTML(o.outputFile, userChartTemplate, page); err != nil {
		return err
	}
	message.Success("HTML chart written to %s (%d users)", o.outputFile, len(o.bubbles))
	return nil
}

func (o *UserChartHTMLOutputter) Params() []cfg.Param {
	return []cfg.Param{
		cfg.NewParam[string]("output", "output directory").WithDefault("azure_enum_rbac"),
	}
}

// ChartAverage carries the dataset mean through the chain so the outputter
// can put it in the page heading.
type ChartAverage float64

// RoleChartHTMLOutputter renders every role as a bubble sized by its
// assignment count.
type RoleChartHTMLOutputter struct {
	*chain.BaseOutputter
	bubbles    []rbac.RoleBubble
	outputFile string
}

func NewRoleChartHTMLOutputter(configs ...cfg.Config) chain.Outputter {
	o := &RoleChartHTMLOutputter{}
	o.BaseOutputter = chain.NewBaseOutputter(o, configs...)
	return o
}

func (o *RoleChartHTMLOutputter) Initialize() error {
	outputDir, err := cfg.As[string](o.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	o.outputFile = filepath.Join(outputDir, rbac.RoleChartFile)
	return nil
}

func (o *RoleChartHTMLOutputter) Output(v any) error {
	if bubble, ok := v.(rbac.RoleBubble); ok {
		o.bubbles = append(o.bubbles, bubble)
	}
	return nil
}

func (o *RoleChartHTMLOutputter) Complete() error {
	if len(o.bubbles) == 0 {
		message.Warning("No roles found; skipping %s", o.outputFile)
		return nil
	}

	data, err := json.Marshal(o.bubbles)
	if err != nil {
		return fmt.Errorf("failed to marshal role chart data: %w", err)
	}

	if err := renderHTML(o.outputFile, roleChartTemplate, roleChartPage{Dataset: template.JS(data)}); err != nil {
		return err
	}
	message.Success("HTML chart written to %s (%d roles)", o.outputFile, len(o.bubbles))
	return nil
}

func (o *RoleChartHTMLOutputter) Params() []cfg.Param {
	return []cfg.Param{
		cfg.NewParam[string]("output", "output directory").WithDefault("azure_enum_rbac"),
	}
}

func renderHTML(path string, tmpl *template.Template, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file %s: %w", path, err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to render chart %s: %w", path, err)
	}
	return nil
}

type userChartPage struct {
	Average string
	Dataset template.JS
}

type roleChartPage struct {
	Dataset template.JS
}

var userChartTemplate = template.Must(template.New("userchart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Above Avg Users (~{{.Average}})</title>
  <script src="https://d3js.org/d3.v7.min.js"></script>
  <style>
    body { font-family: sans-serif; margin: 20px; }
    #container { display: flex; flex-direction: row; }
    #chartColumn { margin-right: 20px; position: relative; }
    #rolesColumn { flex: 0 0 320px; margin-right: 20px; white-space: nowrap; overflow-x: auto; }
    #usersColumn { flex: 0 0 400px; white-space: nowrap; overflow-x: auto; }
    .roleListItem { margin: 4px 0; cursor: pointer; }
    .roleListItem:hover { background-color: rgba(0,0,0,0.1); }
    .tooltip {
      position: absolute; background: rgba(0,0,0,0.7); color: #fff;
      padding: 5px 8px; border-radius: 4px; pointer-events: none;
      font-size: 12px; z-index: 999; opacity: 0;
    }
    #roleHoverBox {
      margin-top: 10px; padding: 5px; border: 1px solid #ccc;
      background: #fafafa; font-size: 14px; white-space: pre-line; min-height: 200px;
    }
  </style>
</head>
<body>

<h2>Above-Avg Users (~{{.Average}}) &mdash; Circles sized by totalResourceCount, Pie slices by role</h2>
<p>
Hover over a circle to show all roles for that user.<br/>
Hover over a role to highlight its slices in all circles.
</p>

<div id="container">
  <div id="chartColumn"><div id="chart"></div></div>
  <div id="rolesColumn"><h3>All Roles (Filtered Users)</h3><div id="roleItems"></div></div>
  <div id="usersColumn"><h3>Users with this Role</h3><div id="roleHoverBox"></div></div>
</div>

<div class="tooltip" id="tooltip"></div>

<script>
const userData = {{.Dataset}};

const allRolesMap = new Map();
const roleUserMap = new Map();

userData.forEach(u => {
  u.roles.forEach(r => {
    allRolesMap.set(r.roleName, (allRolesMap.get(r.roleName) || 0) + r.count);
    if (!roleUserMap.has(r.roleName)) roleUserMap.set(r.roleName, []);
    roleUserMap.get(r.roleName).push({ userName: u.userName, jobTitle: u.jobTitle, roleCount: r.count });
  });
});

const allRoles = Array.from(allRolesMap.entries())
  .sort((a,b) => d3.descending(a[1], b[1]))
  .map(([roleName, totalCount]) => ({ roleName, totalCount }));

const width = 3000, height = 2000;
const svg = d3.select("#chart").append("svg")
  .attr("width", 1500).attr("height", 1000)
  .attr("viewBox",[0,0,width,height]);

const tooltip = d3.select("#tooltip");
const maxResources = d3.max(userData, d => d.totalResourceCount) || 1;
const radiusScale = d3.scaleSqrt().domain([0, maxResources]).range([0, 160]);
const roleNames = allRoles.map(r => r.roleName);
const colorScale = d3.scaleOrdinal()
  .domain(roleNames)
  .range(d3.quantize(d3.interpolateRainbow, roleNames.length + 1));

let nodes = userData.map((u, i) => ({
  index: i,
  user: u,
  userRoles: new Set(u.roles.map(rr => rr.roleName)),
  x: Math.random()*width,
  y: Math.random()*height,
  r: radiusScale(u.totalResourceCount)
}));

const userGroups = svg.selectAll(".userGroup")
  .data(nodes).enter().append("g").attr("class","userGroup");

userGroups.each(function(nd) {
  const g = d3.select(this);
  const pie = d3.pie().sort(null).value(rr => rr.count);
  const arcGen = d3.arc().innerRadius(0).outerRadius(nd.r);
  g.selectAll(".slice")
    .data(pie(nd.user.roles)).enter().append("path")
    .attr("class","slice")
    .attr("d", arcGen)
    .attr("fill", d => colorScale(d.data.roleName))
    .attr("stroke","#333")
    .attr("stroke-width",0.5);
});

userGroups.append("circle")
  .attr("class","userOutline")
  .attr("r", d => d.r)
  .attr("fill","none").attr("stroke","none").attr("stroke-width",0);

userGroups.append("text")
  .attr("text-anchor","middle").attr("dy","0.4em")
  .text(d => d.user.userName)
  .each(function(d) {
    const textEl = d3.select(this);
    let fontSize = 50;
    textEl.style("font-size", fontSize+"px");
    while(true) {
      const bbox = textEl.node().getBBox();
      if(Math.max(bbox.width,bbox.height) <= 2*d.r || fontSize<=1) break;
      fontSize--;
      textEl.style("font-size", fontSize+"px");
    }
  });

userGroups
  .on("mouseover", function(evt, nd) {
    tooltip.style("opacity",1);
    const lines = nd.user.roles.map(r => "(" + r.count + ") " + r.roleName).join("<br/>");
    tooltip.html("<div><strong>User:</strong> " + nd.user.userName + "</div>" +
      "<div><strong>Total Count:</strong> " + nd.user.totalResourceCount + "</div>" +
      "<div><strong>All Roles:</strong><br/>" + lines + "</div>");
  })
  .on("mousemove", function(evt) {
    tooltip.style("left",(evt.pageX+10)+"px").style("top",(evt.pageY+10)+"px");
  })
  .on("mouseout", function() { tooltip.style("opacity",0); });

d3.forceSimulation(nodes)
  .force("center", d3.forceCenter(width/2, height/2))
  .force("x", d3.forceX(width/2).strength(0.2))
  .force("y", d3.forceY(height/2).strength(0.2))
  .force("charge", d3.forceManyBody().strength(0))
  .force("collision", d3.forceCollide().radius(d => d.r).strength(1))
  .on("tick", () => {
    nodes.forEach(d => {
      d.x = Math.max(d.r, Math.min(width-d.r, d.x));
      d.y = Math.max(d.r, Math.min(height-d.r, d.y));
    });
    userGroups.attr("transform", d => "translate(" + d.x + "," + d.y + ")");
  });

d3.select("#roleItems").selectAll(".roleListItem")
  .data(allRoles).enter().append("div")
  .attr("class","roleListItem")
  .style("border-left", d => "10px solid " + colorScale(d.roleName))
  .text(d => d.totalCount + " - " + d.roleName)
  .on("mouseover", function(evt,d) {
    svg.selectAll(".slice").transition().duration(100)
      .style("opacity", s => (s.data.roleName===d.roleName) ? 1 : 0.15);
    userGroups.select(".userOutline").transition().duration(100)
      .attr("stroke", nd => nd.userRoles.has(d.roleName) ? "black" : "none")
      .attr("stroke-width", nd => nd.userRoles.has(d.roleName) ? 2 : 0);
    const userList = (roleUserMap.get(d.roleName) || []).slice()
      .sort((a,b) => b.roleCount - a.roleCount)
      .map(u => "(" + u.roleCount + ") " + u.userName + " | " + u.jobTitle);
    d3.select("#roleHoverBox").html(userList.join("\n"));
  })
  .on("mouseout", function() {
    svg.selectAll(".slice").transition().duration(100).style("opacity",1);
    userGroups.select(".userOutline").transition().duration(100)
      .attr("stroke","none").attr("stroke-width",0);
    d3.select("#roleHoverBox").html("");
  });
</script>
</body>
</html>
`))

var roleChartTemplate = template.Must(template.New("rolechart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>All Roles Bubble Chart</title>
  <script src="https://d3js.org/d3.v7.min.js"></script>
  <style>
    body { font-family: sans-serif; margin: 20px; }
    #chart { width: 1500px; height: 1000px; border: 1px solid #ccc; margin-bottom: 20px; }
    .tooltip {
      position: absolute; background: rgba(0,0,0,0.7); color: #fff;
      padding: 5px 8px; border-radius: 4px; pointer-events: none;
      font-size: 12px; z-index: 999; opacity: 0;
    }
  </style>
</head>
<body>
<h2>All Roles Bubble Chart</h2>
<p>Every discovered role is shown here, sized by its assignment count.</p>

<div id="chart"></div>
<div class="tooltip" id="tooltip"></div>

<script>
const roleData = {{.Dataset}};

const width = 3000, height = 2000;
const svg = d3.select("#chart").append("svg")
  .attr("width", 1500).attr("height", 1000)
  .attr("viewBox",[0,0,width,height]);

const tooltip = d3.select("#tooltip");
const maxCount = d3.max(roleData, d => d.assignmentCount) || 1;
const radiusScale = d3.scaleSqrt().domain([0, maxCount]).range([0, 180]);
const colorScale = d3.scaleOrdinal()
  .domain(roleData.map(d => d.roleName))
  .range(d3.quantize(d3.interpolateRainbow, roleData.length + 1));

let nodes = roleData.map((r, i) => ({
  index: i,
  role: r,
  x: Math.random()*width,
  y: Math.random()*height,
  r: radiusScale(r.assignmentCount)
}));

const roleGroups = svg.selectAll(".roleGroup")
  .data(nodes).enter().append("g").attr("class","roleGroup");

roleGroups.append("circle")
  .attr("r", d => d.r)
  .attr("fill", d => colorScale(d.role.roleName))
  .attr("stroke","#333")
  .attr("stroke-width",0.5);

roleGroups.append("text")
  .attr("text-anchor","middle").attr("dy","0.4em")
  .text(d => d.role.roleName)
  .each(function(d) {
    const textEl = d3.select(this);
    let fontSize = 40;
    textEl.style("font-size", fontSize+"px");
    while(true) {
      const bbox = textEl.node().getBBox();
      if(Math.max(bbox.width,bbox.height) <= 2*d.r || fontSize<=1) break;
      fontSize--;
      textEl.style("font-size", fontSize+"px");
    }
  });

roleGroups
  .on("mouseover", function(evt, nd) {
    tooltip.style("opacity",1);
    const scopes = nd.role.scopes.slice(0, 30).join("<br/>");
    tooltip.html("<div><strong>Role:</strong> " + nd.role.roleName + "</div>" +
      "<div><strong>Assignments:</strong> " + nd.role.assignmentCount + "</div>" +
      "<div><strong>Scopes:</strong><br/>" + scopes + "</div>");
  })
  .on("mousemove", function(evt) {
    tooltip.style("left",(evt.pageX+10)+"px").style("top",(evt.pageY+10)+"px");
  })
  .on("mouseout", function() { tooltip.style("opacity",0); });

d3.forceSimulation(nodes)
  .force("center", d3.forceCenter(width/2, height/2))
  .force("x", d3.forceX(width/2).strength(0.2))
  .force("y", d3.forceY(height/2).strength(0.2))
  .force("charge", d3.forceManyBody().strength(0))
  .force("collision", d3.forceCollide().radius(d => d.r).strength(1))
  .on("tick", () => {
    nodes.forEach(d => {
      d.x = Math.max(d.r, Math.min(width-d.r, d.x));
      d.y = Math.max(d.r, Math.min(height-d.r, d.y));
    });
    roleGroups.attr("transform", d => "translate(" + d.x + "," + d.y + ")");
  });
</script>
</body>
</html>
`))
