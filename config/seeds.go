package config

// DefaultSeeds covers Taipei's districts with overlapping 1km search circles.
var DefaultSeeds = []Seed{
	{Name: "台北車站", Lat: 25.0478, Lng: 121.5319},
	{Name: "中山區北部", Lat: 25.0802, Lng: 121.5268},
	{Name: "中山區南部", Lat: 25.0520, Lng: 121.5325},
	{Name: "大安區北部", Lat: 25.0386, Lng: 121.5431},
	{Name: "大安區南部", Lat: 25.0203, Lng: 121.5437},
	{Name: "信義區北部", Lat: 25.0405, Lng: 121.5600},
	{Name: "信義區南部", Lat: 25.0282, Lng: 121.5773},
	{Name: "萬華區", Lat: 25.0356, Lng: 121.5007},
	{Name: "中正區", Lat: 25.0335, Lng: 121.5192},
	{Name: "松山區", Lat: 25.0593, Lng: 121.5573},
	{Name: "士林區", Lat: 25.0952, Lng: 121.5250},
	{Name: "內湖區北部", Lat: 25.0960, Lng: 121.5900},
	{Name: "內湖區南部", Lat: 25.0800, Lng: 121.5750},
	{Name: "南港區", Lat: 25.0495, Lng: 121.6172},
	{Name: "北投區西部", Lat: 25.1191, Lng: 121.4980},
	{Name: "北投區東部", Lat: 25.1320, Lng: 121.5400},
	{Name: "文山區西部", Lat: 24.9886, Lng: 121.5450},
	{Name: "文山區東部", Lat: 24.9820, Lng: 121.5700},
	{Name: "大同區", Lat: 25.0617, Lng: 121.5151},
	{Name: "內湖科技園區", Lat: 25.0832, Lng: 121.5645},
	{Name: "圓山站", Lat: 25.0727, Lng: 121.5196},
	{Name: "古亭站", Lat: 25.0254, Lng: 121.5262},
	{Name: "西門町", Lat: 25.0423, Lng: 121.5079},
	{Name: "公館", Lat: 25.0169, Lng: 121.5332},
	{Name: "天母", Lat: 25.1167, Lng: 121.5266},
}
